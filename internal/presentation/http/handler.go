package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	appInvoice "github.com/emartlabs/fulfillment/internal/application/invoice"
	appOrder "github.com/emartlabs/fulfillment/internal/application/order"
	appPayment "github.com/emartlabs/fulfillment/internal/application/payment"
	"github.com/emartlabs/fulfillment/internal/application/stats"
	"github.com/emartlabs/fulfillment/internal/application/stock"
	domInvoice "github.com/emartlabs/fulfillment/internal/domain/invoice"
	domOrder "github.com/emartlabs/fulfillment/internal/domain/order"
	domPayment "github.com/emartlabs/fulfillment/internal/domain/payment"
	domProduct "github.com/emartlabs/fulfillment/internal/domain/product"
	domUser "github.com/emartlabs/fulfillment/internal/domain/user"
	"github.com/emartlabs/fulfillment/internal/observability"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handler struct {
	orders   *appOrder.Service
	payments *appPayment.Service
	invoices *appInvoice.Service
	stats    *stats.Service
	ledger   *stock.Ledger
	log      *zap.Logger
	metrics  *observability.Metrics
}

func NewHandler(
	orders *appOrder.Service,
	payments *appPayment.Service,
	invoices *appInvoice.Service,
	statsSvc *stats.Service,
	ledger *stock.Ledger,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		orders:   orders,
		payments: payments,
		invoices: invoices,
		stats:    statsSvc,
		ledger:   ledger,
		log:      logger.With(zap.String("component", "http_server")),
		metrics:  metrics,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.route(mux, "POST /orders", h.handleCreateOrder)
	h.route(mux, "GET /orders/statistics", h.handleOrderStatistics)
	h.route(mux, "GET /orders/{id}", h.handleGetOrder)
	h.route(mux, "GET /orders", h.handleListOrders)
	h.route(mux, "POST /orders/{id}/cancel", h.handleCancelOrder)
	h.route(mux, "PATCH /orders/{id}/status", h.handleUpdateOrderStatus)
	h.route(mux, "PATCH /orders/{id}/payment-status", h.handleUpdateOrderPaymentStatus)

	h.route(mux, "POST /payments", h.handleCreatePayment)
	h.route(mux, "GET /payments/statistics", h.handlePaymentStatistics)
	h.route(mux, "GET /payments/{id}", h.handleGetPayment)
	h.route(mux, "GET /payments", h.handleListPayments)
	h.route(mux, "POST /payments/{id}/process", h.handleProcessPayment)
	h.route(mux, "POST /payments/{id}/refund", h.handleRefundPayment)
	h.route(mux, "PATCH /payments/{id}/status", h.handleUpdatePaymentStatus)

	h.route(mux, "POST /invoices", h.handleCreateInvoice)
	h.route(mux, "GET /invoices/statistics", h.handleInvoiceStatistics)
	h.route(mux, "GET /invoices/{id}", h.handleGetInvoice)
	h.route(mux, "GET /invoices", h.handleListInvoices)
	h.route(mux, "POST /invoices/{id}/send", h.handleSendInvoice)
	h.route(mux, "POST /invoices/{id}/pay", h.handleMarkInvoicePaid)
	h.route(mux, "POST /invoices/{id}/cancel", h.handleCancelInvoice)

	h.route(mux, "GET /users/statistics", h.handleUserStatistics)
	h.route(mux, "GET /products/{id}/availability", h.handleCheckAvailability)
	h.route(mux, "GET /health", h.handleHealth)

	return mux
}

func (h *Handler) route(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.Handle(pattern, withObservability(h.log, h.metrics, pattern, fn))
}

// --- orders

type lineItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID      string            `json:"customer_id"`
	Items           []lineItemRequest `json:"items"`
	ShippingAddress string            `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}

	items := make([]appOrder.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, appOrder.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := h.orders.CreateOrder(r.Context(), appOrder.CreateOrderInput{
		CustomerID:      req.CustomerID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domOrder.Filter{
		CustomerID:    q.Get("customer_id"),
		Status:        domOrder.Status(q.Get("status")),
		PaymentStatus: domOrder.PaymentStatus(q.Get("payment_status")),
		Limit:         intQuery(q.Get("limit")),
	}
	orders, err := h.orders.List(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.CancelOrder(r.Context(), r.PathValue("id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}
	err := h.orders.UpdateOrderStatus(r.Context(), r.PathValue("id"), domOrder.Status(req.Status))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "order status updated"})
}

func (h *Handler) handleUpdateOrderPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}
	err := h.orders.UpdatePaymentStatus(r.Context(), r.PathValue("id"), domOrder.PaymentStatus(req.Status))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "payment status updated"})
}

func (h *Handler) handleOrderStatistics(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.OrderStatistics(r.Context(), r.URL.Query().Get("customer_id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// --- payments

type createPaymentRequest struct {
	CustomerID string          `json:"customer_id"`
	OrderID    string          `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
}

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}
	p, err := h.payments.CreatePayment(r.Context(), appPayment.CreatePaymentInput{
		CustomerID: req.CustomerID,
		OrderID:    req.OrderID,
		Amount:     req.Amount,
		Method:     domPayment.Method(req.Method),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.payments.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domPayment.Filter{
		CustomerID: q.Get("customer_id"),
		OrderID:    q.Get("order_id"),
		Status:     domPayment.Status(q.Get("status")),
		Limit:      intQuery(q.Get("limit")),
	}
	payments, err := h.payments.List(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.payments.ProcessPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleRefundPayment(w http.ResponseWriter, r *http.Request) {
	if err := h.payments.RefundPayment(r.Context(), r.PathValue("id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "payment refunded"})
}

func (h *Handler) handleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}
	err := h.payments.UpdatePaymentStatus(r.Context(), r.PathValue("id"), domPayment.Status(req.Status))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "payment status updated"})
}

func (h *Handler) handlePaymentStatistics(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.PaymentStatistics(r.Context(), r.URL.Query().Get("customer_id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// --- invoices

type invoiceItemRequest struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type createInvoiceRequest struct {
	CustomerID string               `json:"customer_id"`
	OrderID    string               `json:"order_id"`
	Items      []invoiceItemRequest `json:"items"`
	DueDate    time.Time            `json:"due_date"`
}

func (h *Handler) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
		return
	}
	items := make([]domInvoice.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domInvoice.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	inv, err := h.invoices.CreateInvoice(r.Context(), appInvoice.CreateInvoiceInput{
		CustomerID: req.CustomerID,
		OrderID:    req.OrderID,
		Items:      items,
		DueDate:    req.DueDate,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *Handler) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domInvoice.Filter{
		CustomerID: q.Get("customer_id"),
		OrderID:    q.Get("order_id"),
		Status:     domInvoice.Status(q.Get("status")),
		Limit:      intQuery(q.Get("limit")),
	}
	invoices, err := h.invoices.List(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (h *Handler) handleSendInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.invoices.SendInvoice(r.Context(), r.PathValue("id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "invoice sent"})
}

func (h *Handler) handleMarkInvoicePaid(w http.ResponseWriter, r *http.Request) {
	if err := h.invoices.MarkInvoiceAsPaid(r.Context(), r.PathValue("id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "invoice paid"})
}

func (h *Handler) handleCancelInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.invoices.CancelInvoice(r.Context(), r.PathValue("id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "invoice cancelled"})
}

func (h *Handler) handleInvoiceStatistics(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.InvoiceStatistics(r.Context(), r.URL.Query().Get("customer_id"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// --- misc

func (h *Handler) handleUserStatistics(w http.ResponseWriter, r *http.Request) {
	s, err := h.stats.UserStatistics(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) handleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	qty := intQuery(r.URL.Query().Get("quantity"))
	if qty == 0 {
		qty = 1
	}
	av, err := h.ledger.CheckAvailability(r.Context(), r.PathValue("id"), qty)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, av)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- plumbing

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, map[string]errorResponse{
		"error": {Code: code, Message: err.Error()},
	})
}

// writeDomainError maps the engine's error kinds onto HTTP statuses so
// callers can branch on the kind, not just success/failure.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domOrder.ErrNotFound),
		errors.Is(err, domPayment.ErrNotFound),
		errors.Is(err, domInvoice.ErrNotFound),
		errors.Is(err, domProduct.ErrNotFound),
		errors.Is(err, domUser.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err)
	case errors.Is(err, domProduct.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err)
	case errors.Is(err, domOrder.ErrInvalidTransition),
		errors.Is(err, domPayment.ErrInvalidTransition),
		errors.Is(err, domInvoice.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err)
	case errors.Is(err, domOrder.ErrAlreadyTerminal):
		writeError(w, http.StatusConflict, "ALREADY_TERMINAL", err)
	case errors.Is(err, domOrder.ErrEmptyOrder),
		errors.Is(err, domOrder.ErrInvalidQuantity),
		errors.Is(err, domOrder.ErrInvalidPaymentStatus),
		errors.Is(err, domPayment.ErrInvalidAmount),
		errors.Is(err, domPayment.ErrInvalidMethod),
		errors.Is(err, domInvoice.ErrEmptyInvoice),
		errors.Is(err, domInvoice.ErrInvalidQuantity),
		errors.Is(err, stock.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "VALIDATION", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", err)
	case errors.Is(err, appOrder.ErrRepository),
		errors.Is(err, appPayment.ErrRepository),
		errors.Is(err, appInvoice.ErrRepository):
		writeError(w, http.StatusBadGateway, "STORE_FAILURE", err)
	default:
		h.log.Error("unhandled_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", err)
	}
}

func intQuery(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
