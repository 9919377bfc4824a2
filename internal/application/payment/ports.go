package payment

import (
	"context"

	domorder "github.com/emartlabs/fulfillment/internal/domain/order"
)

type IDGenerator interface {
	NewID() string
}

// Settler is the outbound port to the external settlement provider.
// Approval and decline are both regular outcomes; an error means the
// provider could not be reached in time.
type Settler interface {
	Settle(ctx context.Context, paymentID string, amount string) (bool, error)
}

// OrderPaymentSetter updates the denormalized payment status an order
// carries. Implemented by the order workflow.
type OrderPaymentSetter interface {
	UpdatePaymentStatus(ctx context.Context, orderID string, ps domorder.PaymentStatus) error
}
