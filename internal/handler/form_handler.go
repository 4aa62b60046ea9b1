package handler

import (
	"net/http"

	"github.com/boddenberg/go-entulho/internal/domain"
	"github.com/boddenberg/go-entulho/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Edit mode and form helpers
// ============================================================

type editTargetResponse struct {
	Editing bool   `json:"editing"`
	NIF     string `json:"nif,omitempty"`
}

func getEditHandler(lc *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nif := lc.EditTarget()
		writeJSON(w, http.StatusOK, editTargetResponse{Editing: nif != "", NIF: nif})
	}
}

func beginEditHandler(lc *service.Lifecycle, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /edit/{nif}")
		defer span.End()

		client, err := lc.BeginEdit(ctx, chi.URLParam(r, "nif"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func cancelEditHandler(lc *service.Lifecycle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lc.CancelEdit()
		w.WriteHeader(http.StatusNoContent)
	}
}

type formFieldRequest struct {
	Record domain.ClientRecord `json:"record"`
	Field  domain.Field        `json:"field"`
	Value  string              `json:"value"`
}

type formFieldResponse struct {
	Record domain.ClientRecord `json:"record"`
	Error  string              `json:"error,omitempty"`
}

// formFieldHandler applies one keystroke to the form state. A rejected value
// is not an HTTP error: the previous record comes back with the message.
func formFieldHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req formFieldRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		next, err := req.Record.WithField(req.Field, req.Value)
		resp := formFieldResponse{Record: next}
		if err != nil {
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type formCheckRequest struct {
	Field domain.Field `json:"field"`
	Value string       `json:"value"`
}

type formCheckResponse struct {
	Field string `json:"field"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func formCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req formCheckRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp := formCheckResponse{Field: string(req.Field), Valid: true}
		if err := domain.CheckField(req.Field, req.Value); err != nil {
			resp.Valid = false
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
