package catalog

import (
	"PriceLens-Backend/entities"
	"context"
	"time"

	"gorm.io/gorm"
)

type (
	CatalogRepository interface {
		FindByBarcode(ctx context.Context, barcode string) (*entities.Product, error)
		FindCandidatesByName(ctx context.Context, name string, limit int) ([]*entities.Product, error)
		SetLinking(ctx context.Context, normalizedProductID, productID string, method string, confidence float64, linkedAt time.Time) (bool, error)
		ClearLinking(ctx context.Context, normalizedProductID string) error
	}

	catalogRepository struct {
		db *gorm.DB
	}
)

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindByBarcode(ctx context.Context, barcode string) (*entities.Product, error) {
	var product entities.Product
	if err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindCandidatesByName prefilters the catalog with pg_trgm before the
// embedding comparison, so only plausible names get vectorized.
func (r *catalogRepository) FindCandidatesByName(ctx context.Context, name string, limit int) ([]*entities.Product, error) {
	var products []*entities.Product
	if err := r.db.WithContext(ctx).Model(&entities.Product{}).
		Where("similarity(name, ?) > 0.2", name).
		Order(gorm.Expr("similarity(name, ?) DESC", name)).
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SetLinking is conditional on the product being unlinked, so the one-shot
// guarantee holds even when two workers race on the same entry. Returns
// false when another writer already linked it.
func (r *catalogRepository) SetLinking(ctx context.Context, normalizedProductID, productID string, method string, confidence float64, linkedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.NormalizedProduct{}).
		Where("id = ? AND linked_product_sk IS NULL", normalizedProductID).
		Updates(map[string]interface{}{
			"linked_product_sk":  productID,
			"linking_method":     method,
			"linking_confidence": confidence,
			"linked_at":          linkedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *catalogRepository) ClearLinking(ctx context.Context, normalizedProductID string) error {
	return r.db.WithContext(ctx).Model(&entities.NormalizedProduct{}).
		Where("id = ?", normalizedProductID).
		Updates(map[string]interface{}{
			"linked_product_sk":  nil,
			"linking_method":     "",
			"linking_confidence": 0,
			"linked_at":          nil,
		}).Error
}
