package psp

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/paymentintent"
)

// DefaultPaymentMethod is charged when no saved method is configured.
const DefaultPaymentMethod = "pm_card_visa"

// StripePSP charges through Stripe PaymentIntents, confirmed on creation.
type StripePSP struct {
	apiKey        string
	paymentMethod string
}

// NewStripePSP creates a new StripePSP.
func NewStripePSP(apiKey, paymentMethod string) *StripePSP {
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}
	return &StripePSP{apiKey: apiKey, paymentMethod: paymentMethod}
}

// Charge creates and confirms a PaymentIntent. Card declines are reported as
// an unsuccessful result rather than an error.
func (p *StripePSP) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	stripe.Key = p.apiKey

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(ToMinorUnits(req.Amount)),
		Currency:           stripe.String(req.Currency),
		PaymentMethod:      stripe.String(p.paymentMethod),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(req.IdempotencyKey)

	intent, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			ref := ""
			if stripeErr.PaymentIntent != nil {
				ref = stripeErr.PaymentIntent.ID
			}
			return &ChargeResult{Success: false, Reference: ref}, nil
		}
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}

	return &ChargeResult{
		Success:   intent.Status == stripe.PaymentIntentStatusSucceeded,
		Reference: intent.ID,
	}, nil
}
