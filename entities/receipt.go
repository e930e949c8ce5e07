package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Receipt struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	StoreID       *uuid.UUID     `gorm:"type:uuid" json:"store_id,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	Status        string         `gorm:"index" json:"status"` // "Pending", "AwaitingStore", "Processed", "Failed"
	RawPayload    datatypes.JSON `gorm:"type:jsonb" json:"raw_payload,omitempty"`
	OcrEngine     string         `json:"ocr_engine,omitempty"`
	OcrConfidence float64        `json:"ocr_confidence"`
	Subtotal      float64        `json:"subtotal"`
	Tax           float64        `json:"tax"`
	Total         float64        `json:"total"`
	ReceiptDate   *time.Time     `json:"receipt_date,omitempty"`

	Store *Store         `gorm:"foreignKey:StoreID"`
	Items []*ReceiptItem `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`
	Timestamp
}
