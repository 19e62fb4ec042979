package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnresolvedConfirmation records a payment reference whose confirmation
// could not be resolved within the retry budget. Support staff reconcile
// these rows manually against the provider dashboard.
type UnresolvedConfirmation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReferenceID string    `gorm:"not null;index:idx_unresolved_confirmations_reference"`
	Provider    string    `gorm:"not null;default:''"`
	Attempts    int       `gorm:"not null"`
	Conflict    *string   // JSON-encoded reconciliation conflict, when observed
	LastError   *string
	ResolvedAt  *time.Time // set once support closes the case
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (UnresolvedConfirmation) TableName() string {
	return "unresolved_confirmations"
}

func (u *UnresolvedConfirmation) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
