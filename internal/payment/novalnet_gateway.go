package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"novalnet-checkout/internal/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Gateway submits a built request to the payment gateway and returns the
// gateway's answer as a payload.
type Gateway interface {
	Submit(ctx context.Context, req *Request) (Payload, error)
}

type novalnetGateway struct {
	client *resty.Client
}

func NewNovalnetGateway(timeout time.Duration) Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return newNovalnetGateway(resty.New().SetTimeout(timeout))
}

func newNovalnetGateway(client *resty.Client) *novalnetGateway {
	return &novalnetGateway{client: client}
}

func (g *novalnetGateway) Submit(ctx context.Context, req *Request) (Payload, error) {
	if req == nil || req.URL == "" || len(req.Fields) == 0 {
		return nil, ErrEmptyRequest
	}

	log := logger.FromCtx(ctx).With(
		zap.String("method_id", req.MethodID),
		zap.String("amount", req.FormattedAmount()),
		zap.String("currency", req.Currency),
	)

	log.Info("sending payment request to Novalnet")

	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(req.Fields).
		Post(req.URL)
	if err != nil {
		log.Error("Novalnet request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	if resp.IsError() {
		log.Error("Novalnet returned non-success status",
			zap.Int("status", resp.StatusCode()),
			zap.ByteString("response", resp.Body()),
		)
		return nil, fmt.Errorf("%w: http %d", ErrGatewayFailure, resp.StatusCode())
	}

	payload, err := decodeResponse(resp.Body())
	if err != nil {
		log.Error("failed decoding Novalnet response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	log.Info("Novalnet response received",
		zap.String("status", payload.Get(FieldStatus)),
		zap.String("tid", payload.Get(FieldTID)),
	)

	return payload, nil
}

// decodeResponse accepts both the url-encoded body of the payport API and
// JSON bodies.
func decodeResponse(body []byte) (Payload, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, fmt.Errorf("empty response body")
	}

	if strings.HasPrefix(trimmed, "{") {
		var raw map[string]any
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, err
		}
		out := make(Payload, len(raw))
		for k, v := range raw {
			switch val := v.(type) {
			case string:
				out[k] = val
			case nil:
				out[k] = ""
			case float64:
				out[k] = strconv.FormatFloat(val, 'f', -1, 64)
			default:
				out[k] = fmt.Sprint(val)
			}
		}
		return out, nil
	}

	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return nil, err
	}
	return PayloadFromValues(values), nil
}

// PayloadFromValues flattens form or query values, keeping the first value
// of each key.
func PayloadFromValues(values url.Values) Payload {
	out := make(Payload, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		} else {
			out[k] = ""
		}
	}
	return out
}
