package impl_http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	impl_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/usecase/transfer"
	port_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/usecase/transfer"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	maxBodyBytes         = 1 << 20
)

// StateReporter exposes the ledger circuit state for health checks.
type StateReporter interface {
	State() string
}

type Handlers struct {
	create port_transfer.CreateTransferUseCase
	get    port_transfer.GetTransferUseCase
	batch  port_transfer.BatchCreateTransfersUseCase
	ledger StateReporter
	logger *zap.Logger
}

func NewHandlers(
	create port_transfer.CreateTransferUseCase,
	get port_transfer.GetTransferUseCase,
	batch port_transfer.BatchCreateTransfersUseCase,
	ledger StateReporter,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{create: create, get: get, batch: batch, ledger: ledger, logger: logger}
}

type transferRequest struct {
	FromAccountID int64           `json:"fromAccountId"`
	ToAccountID   int64           `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
}

func (t transferRequest) toInput(key string) port_transfer.CreateTransferInput {
	return port_transfer.CreateTransferInput{
		IdempotencyKey: key,
		FromAccountID:  t.FromAccountID,
		ToAccountID:    t.ToAccountID,
		Amount:         t.Amount,
	}
}

type batchRequest struct {
	Items []struct {
		IdempotencyKey string           `json:"idempotencyKey"`
		Transfer       *transferRequest `json:"transfer"`
	} `json:"items"`
}

func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	body := map[string]string{"status": "ok"}
	if h.ledger != nil {
		body["ledgerCircuit"] = h.ledger.State()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key == "" {
		writeErr(w, http.StatusBadRequest, "validation_failed", idempotencyKeyHeader+" header is required")
		return
	}

	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", "invalid json")
		return
	}

	out, err := h.create.Execute(r.Context(), req.toInput(key))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if out.Replayed {
		w.Header().Set(replayedHeader, "true")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Payload)
}

func (h *Handlers) GetTransfer(w http.ResponseWriter, r *http.Request) {
	out, err := h.get.Execute(r.Context(), port_transfer.GetTransferInput{TransferID: chi.URLParam(r, "id")})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) BatchCreateTransfers(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", "invalid json")
		return
	}

	in := port_transfer.BatchCreateTransfersInput{Items: make([]port_transfer.CreateTransferInput, len(req.Items))}
	for i, item := range req.Items {
		var t transferRequest
		if item.Transfer != nil {
			t = *item.Transfer
		}
		in.Items[i] = t.toInput(item.IdempotencyKey)
	}

	out, err := h.batch.Execute(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := httpStatusForErr(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request_failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeErr(w, code, kind, publicErrMessage(code, err))
}

func httpStatusForErr(err error) (int, string) {
	switch {
	case errors.Is(err, impl_transfer.ErrInvalidInput):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, impl_transfer.ErrIdempotencyConflict),
		errors.Is(err, impl_transfer.ErrRequestInProgress):
		return http.StatusConflict, "conflict"
	case errors.Is(err, impl_transfer.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func publicErrMessage(code int, err error) string {
	if code >= http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, kind, msg string) {
	writeJSON(w, code, map[string]string{"error": kind, "message": msg})
}
