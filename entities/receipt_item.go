package entities

import (
	"github.com/google/uuid"
)

type ReceiptItem struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReceiptID        uuid.UUID `gorm:"type:uuid;index" json:"receipt_id"`
	LineNumber       int       `json:"line_number"`
	RawName          string    `gorm:"not null" json:"raw_name"`
	ItemCode         string    `json:"item_code,omitempty"`
	Amount           float64   `json:"amount"`
	OcrConfidence    float64   `json:"ocr_confidence"`
	IsDiscountLine   bool      `json:"is_discount_line"`
	IsAdjustmentLine bool      `json:"is_adjustment_line"`

	Receipt        *Receipt                    `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`
	Normalizations []*ReceiptItemNormalization `gorm:"foreignKey:ReceiptItemID"`
	Timestamp
}
