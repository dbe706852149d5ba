// Package transport exposes the checkout orchestration over HTTP.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"novalnet-checkout/internal/apperr"
	"novalnet-checkout/internal/checkout"
	"novalnet-checkout/internal/logger"
	"novalnet-checkout/internal/method"
	"novalnet-checkout/internal/metrics"
	"novalnet-checkout/internal/payment"
	"novalnet-checkout/internal/transaction"

	"go.uber.org/zap"
)

type MethodCatalog interface {
	All() []method.Method
	Lookup(id string) (method.Method, error)
}

type TransactionReader interface {
	GetLatestByOrderNo(ctx context.Context, orderNo string) (*transaction.Transaction, error)
}

// PayloadVerifier authenticates the parameters the gateway posts back.
type PayloadVerifier interface {
	Verify(p payment.Payload) error
}

// ReturnSessions resolves the session a gateway return token was issued for.
type ReturnSessions interface {
	SessionID(token string) (string, error)
}

type HandlerOption func(*Handler)

// WithReturnVerifier replaces the default verifier, which rejects every
// gateway return.
func WithReturnVerifier(v PayloadVerifier) HandlerOption {
	return func(h *Handler) { h.verifier = v }
}

func WithReturnSessions(r ReturnSessions) HandlerOption {
	return func(h *Handler) { h.returns = r }
}

// Handler wires HTTP requests to the checkout service.
type Handler struct {
	checkout     checkout.Service
	methods      MethodCatalog
	gateway      payment.Gateway
	transactions TransactionReader
	metrics      *metrics.Checkout
	verifier     PayloadVerifier
	returns      ReturnSessions
}

func NewHandler(
	svc checkout.Service,
	methods MethodCatalog,
	gateway payment.Gateway,
	transactions TransactionReader,
	m *metrics.Checkout,
	opts ...HandlerOption,
) *Handler {
	if m == nil {
		m = metrics.NewCheckout(nil)
	}
	h := &Handler{
		checkout:     svc,
		methods:      methods,
		gateway:      gateway,
		transactions: transactions,
		metrics:      m,
		verifier:     payment.NewChecksumVerifier(""),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the checkout routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /payment/methods", h.ListMethods)
	mux.HandleFunc("POST /checkout/payment-content", h.PaymentContent)
	mux.HandleFunc("POST /checkout/execute", h.Execute)
	mux.HandleFunc("POST /checkout/gateway/submit", h.GatewaySubmit)
	mux.HandleFunc("GET "+payment.ReturnPath, h.GatewayReturn)
	mux.HandleFunc("POST "+payment.ReturnPath, h.GatewayReturn)
	mux.HandleFunc("GET /payment/transactions/{order_no}", h.LatestTransaction)
}

type contentRequest struct {
	BasketID string `json:"basket_id"`
	MethodID string `json:"method_id"`
}

type contentResponse struct {
	checkout.Directive
	Flow       method.Flow       `json:"flow"`
	PaymentURL string            `json:"payment_url"`
	Amount     string            `json:"amount"`
	Currency   string            `json:"currency"`
	Fields     map[string]string `json:"fields,omitempty"`
}

type executeRequest struct {
	OrderID string `json:"order_id"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Status string       `json:"status"`
	Error  errorPayload `json:"error"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.methods.All())
}

// PaymentContent builds the gateway request for the chosen method. Redirect
// methods get the form the browser has to post to the hosted page.
func (h *Handler) PaymentContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := GetSession(ctx)

	var req contentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "content", err)
		return
	}
	req.BasketID = strings.TrimSpace(req.BasketID)
	req.MethodID = strings.TrimSpace(req.MethodID)
	if req.BasketID == "" || req.MethodID == "" {
		h.writeError(w, r, "content", fmt.Errorf("%w: basket_id and method_id are required", apperr.ErrBadRequest))
		return
	}

	m, err := h.methods.Lookup(req.MethodID)
	if err != nil {
		h.writeError(w, r, "content", err)
		return
	}

	built, err := h.checkout.ContentStep(ctx, sid, req.BasketID, m.ID)
	if err != nil {
		h.writeError(w, r, "content", err)
		return
	}

	resp := contentResponse{
		Directive:  checkout.Directive{Type: checkout.DirectiveContinue, MethodID: built.MethodID},
		Flow:       m.Flow,
		PaymentURL: built.URL,
		Amount:     built.FormattedAmount(),
		Currency:   built.Currency,
	}
	if m.Flow == method.FlowRedirect {
		resp.Fields = built.Fields
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "execute", err)
		return
	}

	d, err := h.checkout.OnExecutePayment(ctx, GetSession(ctx), strings.TrimSpace(req.OrderID))
	if err != nil {
		h.writeError(w, r, "execute", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// GatewaySubmit posts the stored request of a direct method to the gateway
// and records the answer. Execution then finalizes the payment.
func (h *Handler) GatewaySubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := GetSession(ctx)

	state, err := h.checkout.State(ctx, sid)
	if err != nil {
		h.writeError(w, r, "submit", err)
		return
	}
	if state.Request == nil {
		h.writeError(w, r, "submit", checkout.ErrMissingSessionState)
		return
	}

	m, err := h.methods.Lookup(state.Request.MethodID)
	if err != nil {
		h.writeError(w, r, "submit", err)
		return
	}
	if m.Flow != method.FlowDirect {
		h.writeError(w, r, "submit", fmt.Errorf("%w: %s", checkout.ErrNotDirectMethod, m.ID))
		return
	}

	resp, err := h.gateway.Submit(ctx, state.Request)
	if err != nil {
		h.writeError(w, r, "submit", err)
		return
	}
	if err := h.checkout.RecordGatewayResponse(ctx, sid, resp); err != nil {
		h.writeError(w, r, "submit", err)
		return
	}

	writeJSON(w, http.StatusOK, checkout.Directive{
		Type:     checkout.DirectiveContinue,
		MethodID: m.ID,
		Message:  payment.StatusMessage(resp),
	})
}

// GatewayReturn receives the customer back from the hosted payment page,
// records the response parameters and finalizes the order. The browser
// arrives cross-site, so the session comes from the signed token the
// gateway echoes back rather than from the cookie.
func (h *Handler) GatewayReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, "return", fmt.Errorf("%w: %v", apperr.ErrBadRequest, err))
		return
	}
	p := payment.PayloadFromValues(r.Form)

	if err := h.verifier.Verify(p); err != nil {
		h.writeError(w, r, "return", err)
		return
	}

	sid, err := h.returnSession(ctx, p)
	if err != nil {
		h.writeError(w, r, "return", err)
		return
	}
	ctx = WithSession(ctx, sid)

	if err := h.checkout.RecordGatewayResponse(ctx, sid, p); err != nil {
		h.writeError(w, r, "return", err)
		return
	}

	state, err := h.checkout.State(ctx, sid)
	if err != nil {
		h.writeError(w, r, "return", err)
		return
	}

	d, err := h.checkout.OnExecutePayment(ctx, sid, state.OrderNo)
	if err != nil {
		h.writeError(w, r, "return", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) returnSession(ctx context.Context, p payment.Payload) (string, error) {
	token := p.Get(payment.FieldSessionValue)
	if token == "" || h.returns == nil {
		return GetSession(ctx), nil
	}

	sid, err := h.returns.SessionID(token)
	if err != nil {
		return "", fmt.Errorf("%w: return token: %v", apperr.ErrUnauthorized, err)
	}
	return sid, nil
}

// LatestTransaction reports the last logged payment event of an order.
func (h *Handler) LatestTransaction(w http.ResponseWriter, r *http.Request) {
	orderNo := strings.TrimSpace(r.PathValue("order_no"))
	if orderNo == "" {
		h.writeError(w, r, "transaction", fmt.Errorf("%w: order_no is required", apperr.ErrBadRequest))
		return
	}

	t, err := h.transactions.GetLatestByOrderNo(r.Context(), orderNo)
	if err != nil {
		h.writeError(w, r, "transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, step string, err error) {
	kind := apperr.Kind(err)
	status := apperr.HTTPStatus(err)
	h.metrics.Error(step, kind)

	log := logger.FromCtx(r.Context()).With(
		zap.String("step", step),
		zap.String("kind", kind),
		zap.Error(err),
	)
	if status >= http.StatusInternalServerError {
		log.Error("checkout step failed")
	} else {
		log.Warn("checkout step rejected")
	}

	writeJSON(w, status, errorResponse{
		Status: "error",
		Error:  errorPayload{Kind: kind, Message: publicMessage(err, status)},
	})
}

func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError && !errors.Is(err, payment.ErrGatewayFailure) && !errors.Is(err, payment.ErrUnknownStatus) {
		return http.StatusText(status)
	}
	return err.Error()
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON", apperr.ErrBadRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
