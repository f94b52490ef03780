package impl_ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/ledger"
	port_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/ledger"
)

const (
	transferPath    = "/v1/ledger/transfer"
	maxResponseBody = 1 << 20
)

type HTTPConfig struct {
	BaseURL        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

type transferBody struct {
	FromAccountID int64       `json:"fromAccountId"`
	ToAccountID   int64       `json:"toAccountId"`
	Amount        json.Number `json:"amount"`
	TransferID    string      `json:"transferId"`
}

type transferReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HTTPGateway is the plain network client for the ledger. It performs exactly
// one request per call and leaves retries and fallbacks to its caller.
type HTTPGateway struct {
	endpoint string
	client   *http.Client
}

func NewHTTPGateway(cfg HTTPConfig) (*HTTPGateway, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ledger: invalid base url %q", cfg.BaseURL)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
	}

	return &HTTPGateway{
		endpoint: base.String() + transferPath,
		client:   &http.Client{Transport: transport},
	}, nil
}

func (g *HTTPGateway) PostTransfer(ctx context.Context, req port_ledger.TransferRequest) (domain_ledger.Outcome, error) {
	body, err := json.Marshal(transferBody{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        json.Number(req.Amount.StringFixed(2)),
		TransferID:    req.TransferID.String(),
	})
	if err != nil {
		return domain_ledger.Outcome{}, &GatewayError{Class: ClassInternalError, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain_ledger.Outcome{}, &GatewayError{Class: ClassInternalError, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return domain_ledger.Outcome{}, err
		}
		return domain_ledger.Outcome{}, &GatewayError{Class: ClassTransportError, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return domain_ledger.Outcome{}, err
		}
		return domain_ledger.Outcome{}, &GatewayError{Class: ClassTransportError, StatusCode: resp.StatusCode, Err: err}
	}

	return interpret(resp.StatusCode, raw)
}

func interpret(code int, raw []byte) (domain_ledger.Outcome, error) {
	var reply transferReply
	decodeErr := json.Unmarshal(raw, &reply)

	switch {
	case code >= 200 && code < 300:
		if decodeErr != nil {
			return domain_ledger.Outcome{}, &GatewayError{Class: ClassDecodeError, StatusCode: code, Err: decodeErr}
		}
		status, ok := domain_ledger.ParseStatus(reply.Status)
		if !ok {
			return domain_ledger.Outcome{}, &GatewayError{
				Class:      ClassDecodeError,
				StatusCode: code,
				Err:        fmt.Errorf("unknown status %q", reply.Status),
			}
		}
		if status == domain_ledger.StatusFailure {
			return domain_ledger.Failure(reply.Message), nil
		}
		return domain_ledger.Success(reply.Message), nil

	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return domain_ledger.Outcome{}, &GatewayError{Class: ClassUnexpectedStatus, StatusCode: code}

	case code >= 400:
		msg := fmt.Sprintf("ledger rejected transfer: HTTP %d", code)
		if decodeErr == nil && reply.Message != "" {
			msg += ": " + reply.Message
		}
		return domain_ledger.Failure(msg), nil

	default:
		return domain_ledger.Outcome{}, &GatewayError{Class: ClassUnexpectedStatus, StatusCode: code}
	}
}
