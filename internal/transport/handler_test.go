package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"novalnet-checkout/internal/auth"
	"novalnet-checkout/internal/checkout"
	"novalnet-checkout/internal/method"
	"novalnet-checkout/internal/metrics"
	"novalnet-checkout/internal/payment"
	"novalnet-checkout/internal/transaction"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) ContentStep(ctx context.Context, sessionID, basketID, methodID string) (*payment.Request, error) {
	args := m.Called(ctx, sessionID, basketID, methodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Request), args.Error(1)
}

func (m *MockCheckoutService) ExecuteStep(ctx context.Context, sessionID, orderID string) (*checkout.Outcome, error) {
	args := m.Called(ctx, sessionID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Outcome), args.Error(1)
}

func (m *MockCheckoutService) RecordGatewayResponse(ctx context.Context, sessionID string, p payment.Payload) error {
	args := m.Called(ctx, sessionID, p)
	return args.Error(0)
}

func (m *MockCheckoutService) State(ctx context.Context, sessionID string) (*checkout.State, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.State), args.Error(1)
}

func (m *MockCheckoutService) Complete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockCheckoutService) OnBuildPaymentContent(ctx context.Context, sessionID, basketID, methodID string) (*checkout.Directive, error) {
	args := m.Called(ctx, sessionID, basketID, methodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Directive), args.Error(1)
}

func (m *MockCheckoutService) OnExecutePayment(ctx context.Context, sessionID, orderID string) (*checkout.Directive, error) {
	args := m.Called(ctx, sessionID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Directive), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Submit(ctx context.Context, req *payment.Request) (payment.Payload, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(payment.Payload), args.Error(1)
}

type MockTransactionReader struct {
	mock.Mock
}

func (m *MockTransactionReader) GetLatestByOrderNo(ctx context.Context, orderNo string) (*transaction.Transaction, error) {
	args := m.Called(ctx, orderNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

// --- Helpers ---

const (
	testSession   = "sess-1"
	testAccessKey = "test-access-key"
)

var testBinder = auth.NewReturnBinder([]byte("test-secret"), time.Hour)

// signed adds the gateway checksum to a return payload.
func signed(q url.Values) url.Values {
	q.Set("hash2", payment.Checksum(payment.PayloadFromValues(q), testAccessKey))
	return q
}

type harness struct {
	svc     *MockCheckoutService
	gateway *MockGateway
	txns    *MockTransactionReader
	metrics *metrics.Checkout
	mux     *http.ServeMux
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	registry, err := method.NewDefaultRegistry()
	require.NoError(t, err)

	h := &harness{
		svc:     new(MockCheckoutService),
		gateway: new(MockGateway),
		txns:    new(MockTransactionReader),
		metrics: metrics.NewCheckout(prometheus.NewRegistry()),
		mux:     http.NewServeMux(),
	}
	NewHandler(h.svc, registry, h.gateway, h.txns, h.metrics,
		WithReturnVerifier(payment.NewChecksumVerifier(testAccessKey)),
		WithReturnSessions(testBinder),
	).Register(h.mux)
	return h
}

func (h *harness) do(verb, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(verb, target, strings.NewReader(body))
	req = req.WithContext(WithSession(req.Context(), testSession))
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(dst))
}

// --- Tests ---

func TestHandler_Health(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHandler_ListMethods(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/payment/methods", "")
	require.Equal(t, http.StatusOK, w.Code)

	var methods []method.Method
	decodeBody(t, w, &methods)
	assert.Len(t, methods, len(method.Defaults()))
	for _, m := range methods {
		assert.NotEmpty(t, m.ID)
		assert.Nil(t, m.Params)
	}
}

func TestHandler_PaymentContent(t *testing.T) {
	t.Run("RedirectMethodGetsForm", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("ContentStep", mock.Anything, testSession, "B-1", method.PayPal).Return(&payment.Request{
			MethodID: method.PayPal,
			Fields:   map[string]string{"key": "34"},
			Amount:   4999,
			Currency: "USD",
			URL:      "https://paygate.example/pay",
		}, nil)

		w := h.do(http.MethodPost, "/checkout/payment-content", `{"basket_id":"B-1","method_id":"plenty_novalnet::NOVALNET_PAYPAL"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp contentResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, checkout.DirectiveContinue, resp.Type)
		assert.Equal(t, method.FlowRedirect, resp.Flow)
		assert.Equal(t, "49.99", resp.Amount)
		assert.Equal(t, "https://paygate.example/pay", resp.PaymentURL)
		assert.Equal(t, "34", resp.Fields["key"])
	})

	t.Run("DirectMethodHidesFields", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("ContentStep", mock.Anything, testSession, "B-1", method.Invoice).Return(&payment.Request{
			MethodID: method.Invoice,
			Fields:   map[string]string{"auth_code": "secret"},
			Amount:   4999,
			Currency: "USD",
			URL:      "https://payport.example/pay",
		}, nil)

		w := h.do(http.MethodPost, "/checkout/payment-content", `{"basket_id":"B-1","method_id":"NOVALNET_INVOICE"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp contentResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, method.FlowDirect, resp.Flow)
		assert.Empty(t, resp.Fields)
	})

	t.Run("MissingFields", func(t *testing.T) {
		h := newHarness(t)
		w := h.do(http.MethodPost, "/checkout/payment-content", `{"basket_id":"B-1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 1.0, testutil.ToFloat64(h.metricsErrors("content", "bad_request")))
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		h := newHarness(t)
		w := h.do(http.MethodPost, "/checkout/payment-content", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		h := newHarness(t)
		w := h.do(http.MethodPost, "/checkout/payment-content", `{"basket_id":"B-1","method_id":"NOVALNET_NOPE"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)

		var resp errorResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, "unknown_method", resp.Error.Kind)
		h.svc.AssertNotCalled(t, "ContentStep", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidBasket", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("ContentStep", mock.Anything, testSession, "B-0", method.Invoice).
			Return(nil, payment.ErrInvalidBasket)

		w := h.do(http.MethodPost, "/checkout/payment-content", `{"basket_id":"B-0","method_id":"NOVALNET_INVOICE"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Execute(t *testing.T) {
	t.Run("Redirect", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("OnExecutePayment", mock.Anything, testSession, "ORD-1").Return(&checkout.Directive{
			Type:  checkout.DirectiveRedirectURL,
			Value: "https://paygate.example/pay",
		}, nil)

		w := h.do(http.MethodPost, "/checkout/execute", `{"order_id":"ORD-1"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"type":"redirectUrl","value":"https://paygate.example/pay"}`, w.Body.String())
	})

	t.Run("MissingState", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("OnExecutePayment", mock.Anything, testSession, "ORD-1").Return(nil, checkout.ErrMissingSessionState)

		w := h.do(http.MethodPost, "/checkout/execute", `{"order_id":"ORD-1"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 1.0, testutil.ToFloat64(h.metricsErrors("execute", "missing_session_state")))
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("OnExecutePayment", mock.Anything, testSession, "ORD-1").Return(nil, payment.ErrUnknownStatus)

		w := h.do(http.MethodPost, "/checkout/execute", `{"order_id":"ORD-1"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("InternalErrorIsMasked", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("OnExecutePayment", mock.Anything, testSession, "ORD-1").Return(nil, errors.New("redis: connection refused"))

		w := h.do(http.MethodPost, "/checkout/execute", `{"order_id":"ORD-1"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "redis")
	})
}

func TestHandler_GatewaySubmit(t *testing.T) {
	invoiceReq := &payment.Request{
		MethodID: method.Invoice,
		Fields:   map[string]string{"key": "27"},
		Amount:   4999,
		Currency: "USD",
		URL:      "https://payport.example/pay",
	}

	t.Run("Success", func(t *testing.T) {
		h := newHarness(t)
		resp := payment.Payload{"status": "100", "status_desc": "Successful"}
		h.svc.On("State", mock.Anything, testSession).Return(&checkout.State{Request: invoiceReq}, nil)
		h.gateway.On("Submit", mock.Anything, invoiceReq).Return(resp, nil)
		h.svc.On("RecordGatewayResponse", mock.Anything, testSession, resp).Return(nil)

		w := h.do(http.MethodPost, "/checkout/gateway/submit", "")
		require.Equal(t, http.StatusOK, w.Code)

		var d checkout.Directive
		decodeBody(t, w, &d)
		assert.Equal(t, checkout.DirectiveContinue, d.Type)
		assert.Equal(t, "Successful", d.Message)
		h.svc.AssertExpectations(t)
	})

	t.Run("RedirectMethodRejected", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("State", mock.Anything, testSession).Return(&checkout.State{
			Request: &payment.Request{MethodID: method.PayPal, URL: "https://paygate.example/pay"},
		}, nil)

		w := h.do(http.MethodPost, "/checkout/gateway/submit", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		h.gateway.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("GatewayFailure", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("State", mock.Anything, testSession).Return(&checkout.State{Request: invoiceReq}, nil)
		h.gateway.On("Submit", mock.Anything, invoiceReq).Return(nil, payment.ErrGatewayFailure)

		w := h.do(http.MethodPost, "/checkout/gateway/submit", "")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		h.svc.AssertNotCalled(t, "RecordGatewayResponse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("NoState", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("State", mock.Anything, testSession).Return(nil, checkout.ErrMissingSessionState)

		w := h.do(http.MethodPost, "/checkout/gateway/submit", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestHandler_GatewayReturn(t *testing.T) {
	t.Run("FinalizesWithStoredOrder", func(t *testing.T) {
		h := newHarness(t)
		q := signed(url.Values{"status": {"100"}, "tid": {"42"}})
		h.svc.On("RecordGatewayResponse", mock.Anything, testSession, payment.PayloadFromValues(q)).Return(nil)
		h.svc.On("State", mock.Anything, testSession).Return(&checkout.State{OrderNo: "ORD-1"}, nil)
		h.svc.On("OnExecutePayment", mock.Anything, testSession, "ORD-1").Return(&checkout.Directive{
			Type:   checkout.DirectiveSuccess,
			Value:  "success",
			Status: payment.StatusSuccess,
		}, nil)

		w := h.do(http.MethodGet, "/payment/novalnet/return?"+q.Encode(), "")
		require.Equal(t, http.StatusOK, w.Code)

		var d checkout.Directive
		decodeBody(t, w, &d)
		assert.Equal(t, checkout.DirectiveSuccess, d.Type)
		h.svc.AssertExpectations(t)
	})

	t.Run("PostedForm", func(t *testing.T) {
		h := newHarness(t)
		form := signed(url.Values{"status": {"FAILURE"}})
		h.svc.On("RecordGatewayResponse", mock.Anything, testSession, payment.PayloadFromValues(form)).Return(nil)
		h.svc.On("State", mock.Anything, testSession).Return(&checkout.State{OrderNo: "ORD-2"}, nil)
		h.svc.On("OnExecutePayment", mock.Anything, testSession, "ORD-2").Return(&checkout.Directive{
			Type:  checkout.DirectiveError,
			Value: "failure",
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/payment/novalnet/return", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req = req.WithContext(WithSession(req.Context(), testSession))
		w := httptest.NewRecorder()
		h.mux.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"error"`)
	})

	t.Run("CrossSitePostWithoutCookie", func(t *testing.T) {
		h := newHarness(t)
		token, err := testBinder.Bind(testSession)
		require.NoError(t, err)
		form := signed(url.Values{
			"status":    {"100"},
			"tid":       {"42"},
			"input2":    {"checkout_session"},
			"inputval2": {token},
		})
		h.svc.On("RecordGatewayResponse", mock.Anything, testSession, payment.PayloadFromValues(form)).Return(nil)
		h.svc.On("State", mock.Anything, testSession).Return(&checkout.State{OrderNo: "ORD-1"}, nil)
		h.svc.On("OnExecutePayment", mock.Anything, testSession, "ORD-1").Return(&checkout.Directive{
			Type:   checkout.DirectiveSuccess,
			Value:  "success",
			Status: payment.StatusSuccess,
		}, nil)

		// the browser drops the Lax session cookie on the gateway's POST
		router := SessionMiddleware(time.Hour, payment.ReturnPath)(h.mux)
		req := httptest.NewRequest(http.MethodPost, "/payment/novalnet/return", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Result().Cookies())
		h.svc.AssertExpectations(t)
	})

	t.Run("NoCookieNoToken", func(t *testing.T) {
		h := newHarness(t)
		form := signed(url.Values{"status": {"100"}})
		h.svc.On("RecordGatewayResponse", mock.Anything, "", mock.Anything).Return(checkout.ErrMissingSessionState)

		router := SessionMiddleware(time.Hour, payment.ReturnPath)(h.mux)
		req := httptest.NewRequest(http.MethodPost, "/payment/novalnet/return", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("TamperedSessionToken", func(t *testing.T) {
		h := newHarness(t)
		token, err := testBinder.Bind("sess-other")
		require.NoError(t, err)
		q := signed(url.Values{"status": {"100"}, "inputval2": {token[:len(token)-2]}})

		w := h.do(http.MethodGet, "/payment/novalnet/return?"+q.Encode(), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		h.svc.AssertNotCalled(t, "RecordGatewayResponse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ForgedStatusRejected", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(http.MethodGet, "/payment/novalnet/return?status=100&tid=1", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"invalid_checksum"`)
		h.svc.AssertNotCalled(t, "RecordGatewayResponse", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, 1.0, testutil.ToFloat64(h.metricsErrors("return", "invalid_checksum")))
	})

	t.Run("ForgedChecksumRejected", func(t *testing.T) {
		h := newHarness(t)
		q := url.Values{"status": {"100"}, "tid": {"1"}}
		q.Set("hash2", payment.Checksum(payment.PayloadFromValues(q), "guessed-key"))

		w := h.do(http.MethodGet, "/payment/novalnet/return?"+q.Encode(), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		h.svc.AssertNotCalled(t, "RecordGatewayResponse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("WithoutVerifierEverythingIsRejected", func(t *testing.T) {
		svc := new(MockCheckoutService)
		mux := http.NewServeMux()
		NewHandler(svc, nil, nil, nil, nil).Register(mux)

		req := httptest.NewRequest(http.MethodGet, "/payment/novalnet/return?"+signed(url.Values{"status": {"100"}}).Encode(), nil)
		req = req.WithContext(WithSession(req.Context(), testSession))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "RecordGatewayResponse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("BasketMismatch", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("RecordGatewayResponse", mock.Anything, testSession, mock.Anything).Return(checkout.ErrBasketMismatch)

		q := signed(url.Values{"status": {"100"}, "inputval1": {"B-9"}})
		w := h.do(http.MethodGet, "/payment/novalnet/return?"+q.Encode(), "")
		assert.Equal(t, http.StatusConflict, w.Code)
		h.svc.AssertNotCalled(t, "OnExecutePayment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandler_LatestTransaction(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		h := newHarness(t)
		status := "success"
		h.txns.On("GetLatestByOrderNo", mock.Anything, "ORD-1").Return(&transaction.Transaction{
			ID:        7,
			SessionID: testSession,
			OrderNo:   "ORD-1",
			MethodID:  method.Invoice,
			Event:     transaction.EventFinalized,
			Status:    &status,
			Amount:    4999,
			Currency:  "USD",
		}, nil)

		w := h.do(http.MethodGet, "/payment/transactions/ORD-1", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got map[string]any
		decodeBody(t, w, &got)
		assert.Equal(t, "FINALIZED", got["event"])
		assert.Equal(t, "success", got["status"])
		assert.NotContains(t, got, "SessionID")
	})

	t.Run("NotFound", func(t *testing.T) {
		h := newHarness(t)
		h.txns.On("GetLatestByOrderNo", mock.Anything, "ORD-404").Return(nil, transaction.ErrTransactionNotFound)

		w := h.do(http.MethodGet, "/payment/transactions/ORD-404", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func (h *harness) metricsErrors(step, kind string) prometheus.Collector {
	return h.metrics.ErrorCounter(step, kind)
}
