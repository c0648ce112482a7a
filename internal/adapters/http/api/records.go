package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okian/savra/internal/domain/model"
	"github.com/okian/savra/internal/domain/types"
	"github.com/okian/savra/pkg/logger"
)

const maxRecordsBody = 8 << 20

// RecordsHandler accepts pushed activity records and refresh requests.
type RecordsHandler struct {
	deps     Ingestor
	validate *validator.Validate
	logger   logger.Logger
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps Ingestor, l logger.Logger) *RecordsHandler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &RecordsHandler{deps: deps, validate: v, logger: l}
}

// HandlePostRecords handles POST /records. The body is either a JSON array
// of records or {"records": [...]}; the batch is queued whole or refused.
// Malformed records are still queued and rejected one by one downstream.
func (h *RecordsHandler) HandlePostRecords(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_records"
	req, err := decodeRecords(http.MaxBytesReader(w, r.Body, maxRecordsBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", WrapKind(op, ErrBadRequest, describe(err)))
		return
	}

	resp, err := h.deps.Ingest(r.Context(), req.Records)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	h.logger.Info(r.Context(), "records queued",
		logger.String("batch", resp.BatchID),
		logger.Int("records", resp.Queued),
	)
	writeJSON(w, http.StatusAccepted, resp)
}

// HandleRefresh handles POST /refresh.
func (h *RecordsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Refresh(r.Context())
	if err != nil {
		writeFailure(w, "api.post_refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeRecords(body io.Reader) (types.IngestRequest, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return types.IngestRequest{}, fmt.Errorf("decode body: %w", err)
	}
	var req types.IngestRequest
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var records []model.ActivityRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return req, fmt.Errorf("decode records: %w", err)
		}
		req.Records = records
		return req, nil
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decode records: %w", err)
	}
	return req, nil
}

// describe flattens validator errors into "records must not be empty".
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field, _ := strings.CutPrefix(fe.Namespace(), "IngestRequest.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, field+" must not be empty")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must hold at most %s entries", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
