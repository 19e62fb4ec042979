package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/boletera/admin-gateway/api/responses"
	"github.com/boletera/admin-gateway/api/validators"
	"github.com/boletera/admin-gateway/pkg/db/models"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
	"github.com/boletera/admin-gateway/pkg/logger"
	"github.com/boletera/admin-gateway/pkg/pagination"
)

// SupportStore is the reconciliation-log surface for support endpoints.
type SupportStore interface {
	ListOpen(ctx context.Context, params pagination.Params) ([]models.UnresolvedConfirmation, string, error)
	MarkResolved(ctx context.Context, id uuid.UUID) error
}

type unresolvedConfirmationResponse struct {
	ID          uuid.UUID       `json:"id"`
	ReferenceID string          `json:"reference_id"`
	Provider    string          `json:"provider,omitempty"`
	Attempts    int             `json:"attempts"`
	Conflict    json.RawMessage `json:"conflict,omitempty"`
	LastError   *string         `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type unresolvedListResponse struct {
	Items      []unresolvedConfirmationResponse `json:"items"`
	NextCursor string                           `json:"next_cursor,omitempty"`
}

func newUnresolvedConfirmationResponse(row models.UnresolvedConfirmation) unresolvedConfirmationResponse {
	resp := unresolvedConfirmationResponse{
		ID:          row.ID,
		ReferenceID: row.ReferenceID,
		Provider:    row.Provider,
		Attempts:    row.Attempts,
		LastError:   row.LastError,
		CreatedAt:   row.CreatedAt,
	}
	if row.Conflict != nil {
		resp.Conflict = json.RawMessage(*row.Conflict)
	}
	return resp
}

// SupportUnresolvedList returns open unresolved confirmations, oldest first.
func SupportUnresolvedList(store SupportStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support store unavailable"))
			return
		}

		limit, err := validators.OptionalIntQuery(r, "limit", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := store.ListOpen(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := make([]unresolvedConfirmationResponse, 0, len(rows))
		for _, row := range rows {
			items = append(items, newUnresolvedConfirmationResponse(row))
		}
		responses.WriteSuccess(w, unresolvedListResponse{Items: items, NextCursor: next})
	}
}

// SupportUnresolvedClose marks one unresolved confirmation as reconciled.
func SupportUnresolvedClose(store SupportStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support store unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "confirmationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid confirmation id"))
			return
		}

		if err := store.MarkResolved(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "resolved"})
	}
}
