package orders

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
	"github.com/stripe/stripe-go/v84/refund"

	pkgerrors "github.com/floragems/floragems-backend/pkg/errors"
	pkgstripe "github.com/floragems/floragems-backend/pkg/stripe"
)

type stripeGateway struct{}

// NewStripeGateway wraps the configured Stripe client in the gateway
// interface so the order service can be tested against a stub.
func NewStripeGateway(api *pkgstripe.Client) PaymentGateway {
	if api == nil {
		return nil
	}
	return &stripeGateway{}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("order_id", input.OrderID.String())

	for _, line := range input.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(input.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
				UnitAmount: stripe.Int64(line.UnitAmountMinor),
			},
			Quantity: stripe.Int64(line.Qty),
		})
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// RefundSession issues a full refund for the payment behind a completed
// checkout session.
func (g *stripeGateway) RefundSession(ctx context.Context, sessionID string) (*RefundSnapshot, error) {
	sessParams := &stripe.CheckoutSessionParams{}
	sessParams.Context = ctx
	sess, err := session.Get(sessionID, sessParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session has no completed payment")
	}

	refundParams := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
	}
	refundParams.Context = ctx
	ref, err := refund.New(refundParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
	}
	return snapshotFromRefund(ref), nil
}

func (g *stripeGateway) GetRefund(ctx context.Context, refundID string) (*RefundSnapshot, error) {
	params := &stripe.RefundParams{}
	params.Context = ctx
	ref, err := refund.Get(refundID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch refund")
	}
	return snapshotFromRefund(ref), nil
}

func snapshotFromRefund(ref *stripe.Refund) *RefundSnapshot {
	return &RefundSnapshot{
		ID:       ref.ID,
		Status:   string(ref.Status),
		Amount:   ref.Amount,
		Currency: string(ref.Currency),
	}
}
