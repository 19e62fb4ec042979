package confirmation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/boletera/admin-gateway/pkg/db/models"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
	"github.com/boletera/admin-gateway/pkg/pagination"
)

// Store persists unresolved confirmation runs in the gateway database so
// support staff can reconcile them against the provider dashboard.
type Store struct {
	conn *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

// RecordUnresolved writes one exhausted run.
func (s *Store) RecordUnresolved(ctx context.Context, entry UnresolvedEntry) error {
	row := models.UnresolvedConfirmation{
		ReferenceID: entry.ReferenceID,
		Provider:    string(entry.Provider),
		Attempts:    entry.Attempts,
	}
	if entry.Conflict != nil {
		if encoded, err := json.Marshal(entry.Conflict); err == nil {
			conflict := string(encoded)
			row.Conflict = &conflict
		}
	}
	if entry.LastError != nil {
		message := entry.LastError.Error()
		row.LastError = &message
	}

	if err := s.conn.WithContext(ctx).Create(&row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording unresolved confirmation")
	}
	return nil
}

// ListOpen returns unresolved rows support has not closed yet, oldest
// first, with a keyset cursor for the next page.
func (s *Store) ListOpen(ctx context.Context, params pagination.Params) ([]models.UnresolvedConfirmation, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := s.conn.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("created_at asc, id asc").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.UnresolvedConfirmation
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing unresolved confirmations")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// MarkResolved closes one unresolved row after support reconciled it.
func (s *Store) MarkResolved(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	result := s.conn.WithContext(ctx).
		Model(&models.UnresolvedConfirmation{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Update("resolved_at", now)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "closing unresolved confirmation")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "unresolved confirmation not found or already closed")
	}
	return nil
}
