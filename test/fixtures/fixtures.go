package fixtures

import (
	"github.com/nimasrn/payment-tracker/internal/model"
	"github.com/shopspring/decimal"
)

var (
	AlicePayment = model.PaymentCreateRequest{
		CustomerName:  "Alice",
		Amount:        decimal.RequireFromString("49.99"),
		Currency:      model.CurrencyUSD,
		PaymentMethod: model.PaymentMethodCreditCard,
	}

	BobPayment = model.PaymentCreateRequest{
		CustomerName:  "Bob",
		Amount:        decimal.RequireFromString("25.00"),
		Currency:      model.CurrencyEUR,
		PaymentMethod: model.PaymentMethodPaypal,
	}

	CarolPayment = model.PaymentCreateRequest{
		CustomerName:  "Carol",
		Amount:        decimal.RequireFromString("1200"),
		Currency:      model.CurrencyJPY,
		PaymentMethod: model.PaymentMethodBankTransfer,
	}
)

func NewPaymentCreateRequest(name, amount string, currency model.Currency, method model.PaymentMethod) model.PaymentCreateRequest {
	return model.PaymentCreateRequest{
		CustomerName:  name,
		Amount:        decimal.RequireFromString(amount),
		Currency:      currency,
		PaymentMethod: method,
	}
}
