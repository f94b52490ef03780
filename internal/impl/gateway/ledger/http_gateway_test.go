package impl_ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/ledger"
	impl_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/gateway/ledger"
	port_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() port_ledger.TransferRequest {
	return port_ledger.TransferRequest{
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        decimal.RequireFromString("100.5"),
		TransferID:    uuid.MustParse("6f1c2d3e-0000-4000-8000-000000000001"),
	}
}

func newGateway(t *testing.T, h http.HandlerFunc) *impl_ledger.HTTPGateway {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	gw, err := impl_ledger.NewHTTPGateway(impl_ledger.HTTPConfig{
		BaseURL:        srv.URL + "/",
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
	})
	require.NoError(t, err)
	return gw
}

func TestHTTPGateway_SendsTransferAndParsesOutcome(t *testing.T) {
	gw := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/ledger/transfer", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `1`, string(body["fromAccountId"]))
		assert.JSONEq(t, `2`, string(body["toAccountId"]))
		assert.Equal(t, `100.50`, string(body["amount"]))
		assert.JSONEq(t, `"6f1c2d3e-0000-4000-8000-000000000001"`, string(body["transferId"]))

		_, _ = w.Write([]byte(`{"status":"success","message":"posted"}`))
	})

	out, err := gw.PostTransfer(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, domain_ledger.Success("posted"), out)
}

func TestHTTPGateway_StatusMapping(t *testing.T) {
	cases := []struct {
		name      string
		code      int
		body      string
		wantOut   domain_ledger.Outcome
		wantClass impl_ledger.FaultClass
	}{
		{name: "business failure", code: 200, body: `{"status":"FAILURE","message":"insufficient funds"}`, wantOut: domain_ledger.Failure("insufficient funds")},
		{name: "unknown status", code: 200, body: `{"status":"MAYBE"}`, wantClass: impl_ledger.ClassDecodeError},
		{name: "bad json", code: 200, body: `not json`, wantClass: impl_ledger.ClassDecodeError},
		{name: "server error", code: 503, body: ``, wantClass: impl_ledger.ClassUnexpectedStatus},
		{name: "rate limited", code: 429, body: ``, wantClass: impl_ledger.ClassUnexpectedStatus},
		{name: "rejected", code: 422, body: `{"message":"account closed"}`, wantOut: domain_ledger.Failure("ledger rejected transfer: HTTP 422: account closed")},
		{name: "rejected without body", code: 400, body: ``, wantOut: domain_ledger.Failure("ledger rejected transfer: HTTP 400")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			})

			out, err := gw.PostTransfer(context.Background(), testRequest())
			if tc.wantClass == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.wantOut, out)
				return
			}

			var gwErr *impl_ledger.GatewayError
			require.True(t, errors.As(err, &gwErr), "expected GatewayError, got %v", err)
			assert.Equal(t, tc.wantClass, gwErr.Class)
			assert.Equal(t, tc.code, gwErr.StatusCode)
		})
	}
}

func TestHTTPGateway_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw, err := impl_ledger.NewHTTPGateway(impl_ledger.HTTPConfig{BaseURL: url, ConnectTimeout: time.Second, ReadTimeout: time.Second})
	require.NoError(t, err)

	_, err = gw.PostTransfer(context.Background(), testRequest())

	var gwErr *impl_ledger.GatewayError
	require.True(t, errors.As(err, &gwErr), "expected GatewayError, got %v", err)
	assert.Equal(t, impl_ledger.ClassTransportError, gwErr.Class)
}

func TestHTTPGateway_HonorsContextDeadline(t *testing.T) {
	gw := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := gw.PostTransfer(ctx, testRequest())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHTTPGateway_RejectsBadURL(t *testing.T) {
	_, err := impl_ledger.NewHTTPGateway(impl_ledger.HTTPConfig{BaseURL: "not a url"})
	require.Error(t, err)
}
