package store

import (
	"PriceLens-Backend/entities"
	"context"
	"errors"

	"gorm.io/gorm"
)

type (
	StoreRepository interface {
		GetStoreByID(ctx context.Context, id string) (*entities.Store, error)
		FindByFullAddress(ctx context.Context, fullAddress string) (*entities.Store, error)
		FindByPostalCodeAndName(ctx context.Context, postalCode, name string) (*entities.Store, error)
		FindFuzzyByName(ctx context.Context, name, city, province string) (*entities.Store, float64, error)
	}

	storeRepository struct {
		db *gorm.DB
	}

	fuzzyStoreRow struct {
		entities.Store
		Sim float64
	}
)

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) GetStoreByID(ctx context.Context, id string) (*entities.Store, error) {
	var store entities.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindByFullAddress(ctx context.Context, fullAddress string) (*entities.Store, error) {
	var store entities.Store
	if err := r.db.WithContext(ctx).
		Where("lower(full_address) = lower(?)", fullAddress).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindByPostalCodeAndName(ctx context.Context, postalCode, name string) (*entities.Store, error) {
	var store entities.Store
	if err := r.db.WithContext(ctx).
		Where("replace(upper(postal_code), ' ', '') = ? AND lower(name) = lower(?)", postalCode, name).
		First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindFuzzyByName relies on the pg_trgm similarity() function enabled during
// migration. City and province narrow the candidate set when extracted.
func (r *storeRepository) FindFuzzyByName(ctx context.Context, name, city, province string) (*entities.Store, float64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Store{}).
		Select("*, similarity(name, ?) AS sim", name).
		Where("similarity(name, ?) > 0.3", name)

	if city != "" {
		query = query.Where("lower(city) = lower(?)", city)
	}
	if province != "" {
		query = query.Where("lower(province) = lower(?)", province)
	}

	var row fuzzyStoreRow
	if err := query.Order("sim DESC").Limit(1).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, err
		}
		return nil, 0, err
	}
	return &row.Store, row.Sim, nil
}
