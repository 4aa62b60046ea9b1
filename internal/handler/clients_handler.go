package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/go-entulho/internal/domain"
	"github.com/boddenberg/go-entulho/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Client list handlers
// ============================================================

func listClientsHandler(store *service.ClientStore, query *service.QueryService, lc *service.Lifecycle, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /clients")
		defer span.End()

		key, err := service.ParseSortKey(r.URL.Query().Get("sort"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		order, err := service.ParseSortOrder(r.URL.Query().Get("order"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		clients := query.List(ctx, key, order)
		resp := domain.ClientList{
			Data:        clients,
			Total:       len(clients),
			Highlighted: query.Highlighted(),
			EditTarget:  lc.EditTarget(),
			Warning:     store.LoadWarning(),
		}
		if key != service.SortNone {
			resp.Sort = string(key)
			resp.Order = string(order)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func submitClientHandler(lc *service.Lifecycle, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /clients")
		defer span.End()

		var form domain.ClientRecord
		if err := decodeJSON(r, &form); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := lc.Submit(ctx, form)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, result)
	}
}

func getClientHandler(store *service.ClientStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /clients/{nif}")
		defer span.End()
		nif := chi.URLParam(r, "nif")
		span.SetAttributes(attribute.String("client.nif", nif))

		client, err := store.Get(ctx, nif)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func deleteClientHandler(lc *service.Lifecycle, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /clients/{nif}")
		defer span.End()
		nif := chi.URLParam(r, "nif")

		if err := lc.Delete(ctx, nif, parseConfirm(r)); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type toggleFunc func(ctx context.Context, nif string) (domain.ClientRecord, error)

func toggleHandler(toggle toggleFunc, name string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /clients/{nif}/"+name)
		defer span.End()
		nif := chi.URLParam(r, "nif")

		client, err := toggle(ctx, nif)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

type setFlagRequest struct {
	Value bool `json:"value"`
}

func setFlagHandler(lc *service.Lifecycle, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /clients/{nif}/flags/{flag}")
		defer span.End()
		nif := chi.URLParam(r, "nif")

		flag, err := domain.ParseFlag(chi.URLParam(r, "flag"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		var req setFlagRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		client, err := lc.SetFlag(ctx, nif, flag, req.Value)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func searchHandler(query *service.QueryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /search")
		defer span.End()

		result, err := query.Search(ctx, r.URL.Query().Get("numero"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func statsHandler(query *service.QueryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /stats")
		defer span.End()

		writeJSON(w, http.StatusOK, query.Stats(ctx))
	}
}
