package entities

import (
	"github.com/google/uuid"
)

type ReceiptItemNormalization struct {
	ID                  uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ReceiptItemID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_item_normalizations_pair;index" json:"receipt_item_id"`
	NormalizedProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_item_normalizations_pair" json:"normalized_product_id"`
	ConfidenceScore     float64   `json:"confidence_score"`
	NormalizationMethod string    `json:"normalization_method"`
	SimilarityScore     *float64  `json:"similarity_score,omitempty"`
	IsSelected          bool      `gorm:"default:false" json:"is_selected"`

	ReceiptItem       *ReceiptItem       `gorm:"foreignKey:ReceiptItemID;constraint:OnDelete:CASCADE"`
	NormalizedProduct *NormalizedProduct `gorm:"foreignKey:NormalizedProductID"`
	Timestamp
}
