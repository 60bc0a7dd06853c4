package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation wraps every input rejection done before the repository is called.
var ErrValidation = errors.New("validation failed")

// Amounts are stored as numeric(12,2).
const AmountScale = 2

var MaxAmount = decimal.RequireFromString("9999999999.99")

// PaymentStatus is the lifecycle label of a payment. Any status may follow any other.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

func (s PaymentStatus) Valid() bool {
	for _, v := range PaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
)

var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyJPY}

func (c Currency) Valid() bool {
	for _, v := range Currencies {
		if c == v {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodDebitCard    PaymentMethod = "debit_card"
	PaymentMethodPaypal       PaymentMethod = "paypal"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

var PaymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPaypal,
	PaymentMethodBankTransfer,
}

func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if m == v {
			return true
		}
	}
	return false
}

type Payment struct {
	ID            int64           `json:"id"`
	CustomerName  string          `json:"customer_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      Currency        `json:"currency"`
	Status        PaymentStatus   `json:"status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PaymentCreateRequest is the input for inserting a payment. There is no
// status field: new payments always start as pending.
type PaymentCreateRequest struct {
	CustomerName  string
	Amount        decimal.Decimal
	Currency      Currency
	PaymentMethod PaymentMethod
}

func (p PaymentCreateRequest) Validate() error {
	if strings.TrimSpace(p.CustomerName) == "" {
		return fmt.Errorf("%w: customer_name is required", ErrValidation)
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	if !p.Amount.Equal(p.Amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: amount allows at most %d decimal places", ErrValidation, AmountScale)
	}
	if p.Amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: amount must not exceed %s", ErrValidation, MaxAmount.StringFixed(AmountScale))
	}
	if !p.Currency.Valid() {
		return fmt.Errorf("%w: unsupported currency %q", ErrValidation, p.Currency)
	}
	if !p.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unsupported payment_method %q", ErrValidation, p.PaymentMethod)
	}
	return nil
}
