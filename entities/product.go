package entities

import (
	"github.com/google/uuid"
)

// Product is the canonical catalog entry. The catalog itself is owned by an
// external collaborator; this side only reads it during linking.
type Product struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Barcode  string    `gorm:"uniqueIndex" json:"barcode,omitempty"`
	Name     string    `gorm:"index" json:"name"`
	Brand    string    `json:"brand,omitempty"`
	Category string    `json:"category,omitempty"`

	Timestamp
}
