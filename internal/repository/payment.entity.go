package repository

import (
	"time"

	"github.com/nimasrn/payment-tracker/internal/model"
	"github.com/shopspring/decimal"
)

type PaymentEntity struct {
	ID            int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	CustomerName  string          `db:"customer_name"  gorm:"column:customer_name;not null"`
	Amount        decimal.Decimal `db:"amount"         gorm:"column:amount;type:numeric(12,2);not null"`
	Currency      string          `db:"currency"       gorm:"column:currency;not null"`
	Status        string          `db:"status"         gorm:"column:status;not null;default:'pending'"`
	PaymentMethod string          `db:"payment_method" gorm:"column:payment_method;not null"`
	CreatedAt     time.Time       `db:"created_at"     gorm:"column:created_at;not null;index"`
	UpdatedAt     time.Time       `db:"updated_at"     gorm:"column:updated_at;not null"`
}

func (PaymentEntity) TableName() string {
	return "payments"
}

func toPaymentEntity(m *model.Payment) *PaymentEntity {
	if m == nil {
		return nil
	}
	return &PaymentEntity{
		ID:            m.ID,
		CustomerName:  m.CustomerName,
		Amount:        m.Amount,
		Currency:      string(m.Currency),
		Status:        string(m.Status),
		PaymentMethod: string(m.PaymentMethod),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toPaymentModel(e *PaymentEntity) *model.Payment {
	if e == nil {
		return nil
	}
	return &model.Payment{
		ID:            e.ID,
		CustomerName:  e.CustomerName,
		Amount:        e.Amount,
		Currency:      model.Currency(e.Currency),
		Status:        model.PaymentStatus(e.Status),
		PaymentMethod: model.PaymentMethod(e.PaymentMethod),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toPaymentModels(entities []*PaymentEntity) []*model.Payment {
	models := make([]*model.Payment, len(entities))
	for i, e := range entities {
		models[i] = toPaymentModel(e)
	}
	return models
}
