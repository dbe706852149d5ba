package transaction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"novalnet-checkout/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Save(ctx context.Context, t *Transaction) error
	GetLatestByOrderNo(ctx context.Context, orderNo string) (*Transaction, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, t *Transaction) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Save"),
		zap.String("order_no", t.OrderNo),
		zap.String("event", string(t.Event)),
	)

	payload := []byte(t.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	const q = `
	INSERT INTO payment_transactions (
		session_id,
		order_no,
		method_id,
		event,
		tid,
		status,
		amount,
		currency,
		payload
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, created_at;
	`

	err := r.db.QueryRowContext(ctx, q,
		t.SessionID,
		t.OrderNo,
		t.MethodID,
		string(t.Event),
		t.TID,
		t.Status,
		t.Amount,
		t.Currency,
		payload,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		log.Error("failed to insert transaction", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrFailedSaveTransaction, err)
	}

	log.Debug("transaction saved", zap.Int64("transaction_id", t.ID))
	return nil
}

func (r *repository) GetLatestByOrderNo(ctx context.Context, orderNo string) (*Transaction, error) {
	const q = `
	SELECT id, session_id, order_no, method_id, event, tid, status, amount, currency, payload, created_at
	FROM payment_transactions
	WHERE order_no = $1
	ORDER BY id DESC
	LIMIT 1;
	`

	var (
		t     Transaction
		event string
		raw   []byte
	)
	err := r.db.QueryRowContext(ctx, q, orderNo).Scan(
		&t.ID, &t.SessionID, &t.OrderNo, &t.MethodID, &event,
		&t.TID, &t.Status, &t.Amount, &t.Currency, &raw, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	t.Event = Event(event)
	t.Payload = raw
	return &t, nil
}
