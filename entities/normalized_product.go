package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NormalizedProduct struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Merchant        string         `gorm:"uniqueIndex:idx_normalized_products_merchant_raw_name;index" json:"merchant"`
	RawName         string         `gorm:"uniqueIndex:idx_normalized_products_merchant_raw_name;not null" json:"raw_name"`
	NormalizedName  string         `json:"normalized_name"`
	Brand           string         `json:"brand,omitempty"`
	Category        string         `json:"category,omitempty"`
	Barcode         string         `json:"barcode,omitempty"`
	ConfidenceScore float64        `json:"confidence_score"`
	Embedding       datatypes.JSON `gorm:"type:jsonb" json:"-"`
	MatchCount      int            `gorm:"default:1" json:"match_count"`
	LastMatchedAt   *time.Time     `json:"last_matched_at,omitempty"`

	LinkedProductSk   *uuid.UUID `gorm:"type:uuid" json:"linked_product_sk,omitempty"`
	LinkingConfidence float64    `json:"linking_confidence,omitempty"`
	LinkingMethod     string     `json:"linking_method,omitempty"`
	LinkedAt          *time.Time `json:"linked_at,omitempty"`

	LinkedProduct *Product `gorm:"foreignKey:LinkedProductSk;constraint:OnDelete:SET NULL"`
	Timestamp
}

// EmbeddingVector decodes the stored jsonb embedding. A nil slice means no
// embedding was captured for this entry (rule-based creation path).
func (p *NormalizedProduct) EmbeddingVector() ([]float32, error) {
	if len(p.Embedding) == 0 {
		return nil, nil
	}
	var vec []float32
	if err := json.Unmarshal(p.Embedding, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (p *NormalizedProduct) SetEmbeddingVector(vec []float32) error {
	if vec == nil {
		p.Embedding = nil
		return nil
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	p.Embedding = raw
	return nil
}
