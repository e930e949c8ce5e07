package registry

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"context"
	"time"

	"gorm.io/gorm"
)

type (
	RegistryRepository interface {
		Create(ctx context.Context, product *entities.NormalizedProduct) error
		GetByID(ctx context.Context, id string) (*entities.NormalizedProduct, error)
		GetByMerchantAndRawName(ctx context.Context, merchant, rawName string) (*entities.NormalizedProduct, error)
		IncrementMatch(ctx context.Context, id string) error
		GetStats(ctx context.Context) (domain.NormalizationStatsResponse, error)
	}

	registryRepository struct {
		db *gorm.DB
	}
)

func NewRegistryRepository(db *gorm.DB) RegistryRepository {
	return &registryRepository{db: db}
}

func (r *registryRepository) Create(ctx context.Context, product *entities.NormalizedProduct) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *registryRepository) GetByID(ctx context.Context, id string) (*entities.NormalizedProduct, error) {
	var product entities.NormalizedProduct
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *registryRepository) GetByMerchantAndRawName(ctx context.Context, merchant, rawName string) (*entities.NormalizedProduct, error) {
	var product entities.NormalizedProduct
	if err := r.db.WithContext(ctx).
		Where("merchant = ? AND raw_name = ?", merchant, rawName).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// IncrementMatch bumps the reuse counter in one statement so concurrent
// reuses never lose updates.
func (r *registryRepository) IncrementMatch(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entities.NormalizedProduct{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"match_count":     gorm.Expr("match_count + 1"),
			"last_matched_at": time.Now(),
		}).Error
}

func (r *registryRepository) GetStats(ctx context.Context) (domain.NormalizationStatsResponse, error) {
	var stats domain.NormalizationStatsResponse

	if err := r.db.WithContext(ctx).Model(&entities.NormalizedProduct{}).
		Count(&stats.TotalProducts).Error; err != nil {
		return stats, err
	}
	if err := r.db.WithContext(ctx).Model(&entities.NormalizedProduct{}).
		Where("linked_product_sk IS NOT NULL").
		Count(&stats.LinkedProducts).Error; err != nil {
		return stats, err
	}
	if err := r.db.WithContext(ctx).Model(&entities.NormalizedProduct{}).
		Where("linking_method = ?", string(domain.LinkingMethodBarcode)).
		Count(&stats.ByBarcode).Error; err != nil {
		return stats, err
	}
	if err := r.db.WithContext(ctx).Model(&entities.NormalizedProduct{}).
		Where("linking_method = ?", string(domain.LinkingMethodEmbedding)).
		Count(&stats.ByEmbedding).Error; err != nil {
		return stats, err
	}
	if err := r.db.WithContext(ctx).Model(&entities.NormalizedProduct{}).
		Where("linked_product_sk IS NULL AND confidence_score >= ?", domain.LinkingEligibilityFloor).
		Count(&stats.UnlinkedEligible).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
