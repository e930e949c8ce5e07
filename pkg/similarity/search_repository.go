package similarity

import (
	"PriceLens-Backend/entities"
	"context"

	"gorm.io/gorm"
)

type (
	// SearchRepository loads the merchant-scoped candidate pool. Search never
	// crosses merchant boundaries, so every query carries the merchant key.
	SearchRepository interface {
		GetEmbeddedByMerchant(ctx context.Context, merchant string) ([]*entities.NormalizedProduct, error)
	}

	searchRepository struct {
		db *gorm.DB
	}
)

func NewSearchRepository(db *gorm.DB) SearchRepository {
	return &searchRepository{db: db}
}

func (r *searchRepository) GetEmbeddedByMerchant(ctx context.Context, merchant string) ([]*entities.NormalizedProduct, error) {
	var products []*entities.NormalizedProduct
	if err := r.db.WithContext(ctx).
		Where("merchant = ? AND embedding IS NOT NULL", merchant).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
