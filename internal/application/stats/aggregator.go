package stats

import (
	"github.com/shopspring/decimal"

	dominvoice "github.com/emartlabs/fulfillment/internal/domain/invoice"
	domorder "github.com/emartlabs/fulfillment/internal/domain/order"
	dompayment "github.com/emartlabs/fulfillment/internal/domain/payment"
	domuser "github.com/emartlabs/fulfillment/internal/domain/user"
)

// Aggregation is pure: counts and sums over a snapshot of records, grouped
// by status. Empty input yields all-zero statistics, never an error.

type OrderStatistics struct {
	Total       int             `json:"total"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Pending     int             `json:"pending"`
	Confirmed   int             `json:"confirmed"`
	Processing  int             `json:"processing"`
	Shipped     int             `json:"shipped"`
	Delivered   int             `json:"delivered"`
	Cancelled   int             `json:"cancelled"`
}

func AggregateOrders(orders []*domorder.Order) OrderStatistics {
	s := OrderStatistics{TotalAmount: decimal.Zero}
	for _, o := range orders {
		s.Total++
		s.TotalAmount = s.TotalAmount.Add(o.TotalAmount)
		switch o.Status {
		case domorder.StatusPending:
			s.Pending++
		case domorder.StatusConfirmed:
			s.Confirmed++
		case domorder.StatusProcessing:
			s.Processing++
		case domorder.StatusShipped:
			s.Shipped++
		case domorder.StatusDelivered:
			s.Delivered++
		case domorder.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

type PaymentStatistics struct {
	Total       int             `json:"total"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Pending     int             `json:"pending"`
	Completed   int             `json:"completed"`
	Failed      int             `json:"failed"`
	Refunded    int             `json:"refunded"`
	Cancelled   int             `json:"cancelled"`
}

func AggregatePayments(payments []*dompayment.Payment) PaymentStatistics {
	s := PaymentStatistics{TotalAmount: decimal.Zero}
	for _, p := range payments {
		s.Total++
		s.TotalAmount = s.TotalAmount.Add(p.Amount)
		switch p.Status {
		case dompayment.StatusPending:
			s.Pending++
		case dompayment.StatusCompleted:
			s.Completed++
		case dompayment.StatusFailed:
			s.Failed++
		case dompayment.StatusRefunded:
			s.Refunded++
		case dompayment.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

type InvoiceStatistics struct {
	Total       int             `json:"total"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Draft       int             `json:"draft"`
	Sent        int             `json:"sent"`
	Paid        int             `json:"paid"`
	Overdue     int             `json:"overdue"`
	Cancelled   int             `json:"cancelled"`
}

func AggregateInvoices(invoices []*dominvoice.Invoice) InvoiceStatistics {
	s := InvoiceStatistics{TotalAmount: decimal.Zero}
	for _, inv := range invoices {
		s.Total++
		s.TotalAmount = s.TotalAmount.Add(inv.TotalAmount)
		switch inv.Status {
		case dominvoice.StatusDraft:
			s.Draft++
		case dominvoice.StatusSent:
			s.Sent++
		case dominvoice.StatusPaid:
			s.Paid++
		case dominvoice.StatusOverdue:
			s.Overdue++
		case dominvoice.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

type UserStatistics struct {
	Total     int `json:"total"`
	Admins    int `json:"admins"`
	Suppliers int `json:"suppliers"`
	Customers int `json:"customers"`
}

func AggregateUsers(users []*domuser.User) UserStatistics {
	var s UserStatistics
	for _, u := range users {
		s.Total++
		switch u.Role {
		case domuser.RoleAdmin:
			s.Admins++
		case domuser.RoleSupplier:
			s.Suppliers++
		case domuser.RoleCustomer:
			s.Customers++
		}
	}
	return s
}
