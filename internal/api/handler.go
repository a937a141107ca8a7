package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/services"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

const jsonContentType = "application/json; charset=utf-8"

// Handler serves the ledger over HTTP. Every mutation is stamped with the
// server clock.
type Handler struct {
	service *services.Service
	now     func() int64
}

func NewHandler(service *services.Service) *Handler {
	return &Handler{
		service: service,
		now:     func() int64 { return time.Now().Unix() },
	}
}

// handlerFunc is an http.HandlerFunc that reports failures as ledger errors.
type handlerFunc func(w http.ResponseWriter, r *http.Request) *types.Error

type errorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func wrap(f handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}

		if err.StatusCode >= http.StatusInternalServerError {
			log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		}

		writeJSON(r, w, err.StatusCode, errorResponse{
			ErrorCode: err.ErrorCode.String(),
			Message:   err.Error(),
		})
	}
}

func writeJSON(r *http.Request, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to write response")
	}
}

// parseJSON decodes a request body strictly.
func parseJSON(r io.Reader, v any) *types.Error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return types.NewLedgerError(types.BadRequest, "invalid request body: %v", err)
	}
	return nil
}
