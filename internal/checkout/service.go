package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"novalnet-checkout/internal/basket"
	"novalnet-checkout/internal/logger"
	"novalnet-checkout/internal/metrics"
	"novalnet-checkout/internal/payment"
	"novalnet-checkout/internal/session"
	"novalnet-checkout/internal/transaction"

	"go.uber.org/zap"
)

type RequestBuilder interface {
	BuildRequest(snap *basket.Snapshot, methodID string) (*payment.Request, error)
}

type StatusResolver interface {
	Resolve(p payment.Payload) (payment.StatusText, error)
}

// StatusResolverFunc adapts a plain function to StatusResolver.
type StatusResolverFunc func(p payment.Payload) (payment.StatusText, error)

func (f StatusResolverFunc) Resolve(p payment.Payload) (payment.StatusText, error) {
	return f(p)
}

// SessionBinder issues the token the gateway echoes back so a return can
// be matched to its session without cookies.
type SessionBinder interface {
	Bind(sessionID string) (string, error)
}

type Service interface {
	// ContentStep builds the gateway request for the chosen method and
	// stashes it in the session.
	ContentStep(ctx context.Context, sessionID, basketID, methodID string) (*payment.Request, error)
	// ExecuteStep redirects to the gateway while the stored payment data
	// carries no status, and finalizes the order once it does.
	ExecuteStep(ctx context.Context, sessionID, orderID string) (*Outcome, error)
	RecordGatewayResponse(ctx context.Context, sessionID string, p payment.Payload) error
	State(ctx context.Context, sessionID string) (*State, error)
	Complete(ctx context.Context, sessionID string) error

	OnBuildPaymentContent(ctx context.Context, sessionID, basketID, methodID string) (*Directive, error)
	OnExecutePayment(ctx context.Context, sessionID, orderID string) (*Directive, error)
}

type Option func(*service)

func WithRedirectTracker(t RedirectTracker) Option {
	return func(s *service) { s.redirects = t }
}

func WithTransactionLog(repo transaction.Repository) Option {
	return func(s *service) { s.transactions = repo }
}

func WithSessionBinder(b SessionBinder) Option {
	return func(s *service) { s.binder = b }
}

func WithMetrics(m *metrics.Checkout) Option {
	return func(s *service) { s.metrics = m }
}

type service struct {
	baskets      basket.Provider
	builder      RequestBuilder
	store        session.Store
	resolver     StatusResolver
	redirects    RedirectTracker
	transactions transaction.Repository
	binder       SessionBinder
	metrics      *metrics.Checkout
}

func NewService(
	baskets basket.Provider,
	builder RequestBuilder,
	store session.Store,
	resolver StatusResolver,
	opts ...Option,
) Service {
	s := &service{
		baskets:  baskets,
		builder:  builder,
		store:    store,
		resolver: resolver,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.redirects == nil {
		s.redirects = NewSessionRedirectTracker(store)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewCheckout(nil)
	}
	return s
}

func (s *service) ContentStep(ctx context.Context, sessionID, basketID, methodID string) (*payment.Request, error) {
	timer := metrics.StartTimer()
	defer s.metrics.ObserveStep("content", timer)

	ctx = logger.WithSessionID(ctx, sessionID)
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ContentStep"),
		zap.String("basket_id", basketID),
		zap.String("payment_method", methodID),
	)

	log.Info("build payment content started")

	snap, err := s.baskets.Load(ctx, basketID)
	if err != nil {
		log.Error("failed to load basket", zap.Error(err))
		return nil, fmt.Errorf("load basket %s: %w", basketID, err)
	}

	req, err := s.builder.BuildRequest(snap, methodID)
	if err != nil {
		log.Warn("failed to build payment request", zap.Error(err))
		return nil, err
	}

	if s.binder != nil {
		token, err := s.binder.Bind(sessionID)
		if err != nil {
			log.Error("failed to bind session to gateway return", zap.Error(err))
			return nil, err
		}
		req.Fields[payment.FieldSessionKey] = "checkout_session"
		req.Fields[payment.FieldSessionValue] = token
	}

	// a new attempt replaces whatever the previous one left behind
	fields := map[string]any{
		KeyPaymentRequest: req,
		KeyPaymentData:    payment.Payload(req.Fields),
		KeyPaymentURL:     req.URL,
	}
	if err := s.store.Update(ctx, sessionID, fields, KeyOrderNo); err != nil {
		log.Error("failed to store payment state", zap.Error(err))
		return nil, err
	}

	s.metrics.Outcome("continue", "")
	log.Info("payment request stored",
		zap.String("amount", req.FormattedAmount()),
		zap.String("currency", req.Currency),
		zap.String("payment_url", req.URL),
	)

	return req, nil
}

func (s *service) ExecuteStep(ctx context.Context, sessionID, orderID string) (*Outcome, error) {
	timer := metrics.StartTimer()
	defer s.metrics.ObserveStep("execute", timer)

	ctx = logger.WithSessionID(ctx, sessionID)
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ExecuteStep"),
		zap.String("order_id", orderID),
	)

	state, err := s.State(ctx, sessionID)
	if err != nil {
		log.Warn("execute without payment state", zap.Error(err))
		return nil, err
	}

	if !state.PaymentData.HasStatus() {
		if orderID == "" {
			return nil, ErrMissingOrderID
		}
		if err := s.store.Set(ctx, sessionID, KeyOrderNo, orderID); err != nil {
			return nil, err
		}

		url, err := s.redirects.RedirectURL(ctx, sessionID)
		if err != nil {
			log.Error("failed to resolve redirect url", zap.Error(err))
			return nil, err
		}

		state.OrderNo = orderID
		s.logTransaction(ctx, sessionID, state, transaction.EventRedirect, "")
		s.metrics.Outcome("redirect", "")

		log.Info("payment awaits gateway, redirecting", zap.String("redirect_url", url))
		return Redirect(url), nil
	}

	status, err := s.resolver.Resolve(state.PaymentData)
	if err != nil {
		log.Error("failed to resolve gateway status",
			zap.String("gateway_status", state.PaymentData.Get(payment.FieldStatus)),
			zap.Error(err),
		)
		return nil, err
	}

	outcome := Finalized(status, payment.StatusMessage(state.PaymentData))
	if status != payment.StatusFailure && state.Request != nil {
		if steps := payment.GetInstructions(state.Request.MethodID); len(steps) > 0 {
			outcome.Instructions = payment.InjectVariables(steps, payment.VarsFromPayload(state.PaymentData, state.Request.Amount))
		}
	}

	if state.OrderNo == "" {
		state.OrderNo = orderID
	}
	s.logTransaction(ctx, sessionID, state, transaction.EventFinalized, status)
	s.metrics.Outcome("finalized", string(status))

	log.Info("payment finalized",
		zap.String("status", string(status)),
		zap.String("tid", state.PaymentData.Get(payment.FieldTID)),
	)
	return outcome, nil
}

// RecordGatewayResponse replaces the stored payment data with the gateway
// answer. A session that never built a request cannot receive one.
func (s *service) RecordGatewayResponse(ctx context.Context, sessionID string, p payment.Payload) error {
	ctx = logger.WithSessionID(ctx, sessionID)
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RecordGatewayResponse"),
	)

	if len(p) == 0 {
		return ErrEmptyGatewayPayload
	}

	var req payment.Request
	found, err := s.store.Get(ctx, sessionID, KeyPaymentRequest, &req)
	if err != nil {
		return err
	}
	if !found {
		log.Warn("gateway response without payment request")
		return ErrMissingSessionState
	}

	if basketID := p.Get(payment.FieldBasketIDValue); basketID != "" && basketID != req.Fields[payment.FieldBasketIDValue] {
		log.Warn("gateway response for another basket",
			zap.String("expected", req.Fields[payment.FieldBasketIDValue]),
			zap.String("got", basketID),
		)
		return ErrBasketMismatch
	}

	if err := s.store.Set(ctx, sessionID, KeyPaymentData, p.Clone()); err != nil {
		return err
	}

	log.Info("gateway response recorded",
		zap.String("gateway_status", p.Get(payment.FieldStatus)),
		zap.String("tid", p.Get(payment.FieldTID)),
	)
	return nil
}

func (s *service) State(ctx context.Context, sessionID string) (*State, error) {
	var state State

	found, err := s.store.Get(ctx, sessionID, KeyPaymentData, &state.PaymentData)
	if err != nil {
		return nil, err
	}
	if !found || state.PaymentData == nil {
		return nil, ErrMissingSessionState
	}

	var req payment.Request
	if ok, err := s.store.Get(ctx, sessionID, KeyPaymentRequest, &req); err != nil {
		return nil, err
	} else if ok {
		state.Request = &req
	}
	if _, err := s.store.Get(ctx, sessionID, KeyPaymentURL, &state.PaymentURL); err != nil {
		return nil, err
	}
	if _, err := s.store.Get(ctx, sessionID, KeyOrderNo, &state.OrderNo); err != nil {
		return nil, err
	}
	state.Phase = phaseOf(state.PaymentData)

	return &state, nil
}

// Complete drops the payment state once the order has been placed.
func (s *service) Complete(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID, stateKeys...)
}

func (s *service) OnBuildPaymentContent(ctx context.Context, sessionID, basketID, methodID string) (*Directive, error) {
	req, err := s.ContentStep(ctx, sessionID, basketID, methodID)
	if err != nil {
		return nil, err
	}
	return &Directive{Type: DirectiveContinue, MethodID: req.MethodID}, nil
}

func (s *service) OnExecutePayment(ctx context.Context, sessionID, orderID string) (*Directive, error) {
	outcome, err := s.ExecuteStep(ctx, sessionID, orderID)
	if err != nil {
		return nil, err
	}
	return DirectiveFor(outcome), nil
}

// logTransaction records the step in the transaction log. Failures are
// logged and never fail the checkout.
func (s *service) logTransaction(ctx context.Context, sessionID string, state *State, event transaction.Event, status payment.StatusText) {
	if s.transactions == nil {
		return
	}

	t := &transaction.Transaction{
		SessionID: sessionID,
		OrderNo:   state.OrderNo,
		Event:     event,
	}
	if state.Request != nil {
		t.MethodID = state.Request.MethodID
		t.Amount = state.Request.Amount
		t.Currency = state.Request.Currency
	}
	// only the gateway answer is kept, the request carries merchant credentials
	if event == transaction.EventFinalized {
		if raw, err := json.Marshal(state.PaymentData); err == nil {
			t.Payload = raw
		}
		st := string(status)
		t.Status = &st
		if tid := state.PaymentData.Get(payment.FieldTID); tid != "" {
			t.TID = &tid
		}
	}

	if err := s.transactions.Save(ctx, t); err != nil {
		logger.FromCtx(ctx).Warn("failed to log payment transaction",
			zap.String("event", string(event)),
			zap.Error(err),
		)
	}
}
