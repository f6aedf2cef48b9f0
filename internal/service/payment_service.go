package service

import "context"

// PaymentAuthorizer is the boundary to the external payment system. Only the
// authorization decision crosses it; settlement stays outside this service.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, amount float64) (bool, error)
}

// StubPaymentAuthorizer approves every non-negative amount. It stands in
// until a real gateway client is wired behind the interface.
type StubPaymentAuthorizer struct{}

func NewStubPaymentAuthorizer() *StubPaymentAuthorizer {
	return &StubPaymentAuthorizer{}
}

func (a *StubPaymentAuthorizer) Authorize(_ context.Context, amount float64) (bool, error) {
	return amount >= 0, nil
}
