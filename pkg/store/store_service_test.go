package store

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStoreRepository struct {
	stores []*entities.Store
	// fuzzySim is the similarity the fake reports for fuzzy hits.
	fuzzySim float64
}

func (f *fakeStoreRepository) GetStoreByID(_ context.Context, id string) (*entities.Store, error) {
	for _, s := range f.stores {
		if s.ID.String() == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStoreRepository) FindByFullAddress(_ context.Context, fullAddress string) (*entities.Store, error) {
	for _, s := range f.stores {
		if strings.EqualFold(s.FullAddress, fullAddress) {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStoreRepository) FindByPostalCodeAndName(_ context.Context, postalCode, name string) (*entities.Store, error) {
	for _, s := range f.stores {
		compact := strings.ReplaceAll(strings.ToUpper(s.PostalCode), " ", "")
		if compact == postalCode && strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStoreRepository) FindFuzzyByName(_ context.Context, name, city, province string) (*entities.Store, float64, error) {
	for _, s := range f.stores {
		if city != "" && !strings.EqualFold(s.City, city) {
			continue
		}
		if province != "" && !strings.EqualFold(s.Province, province) {
			continue
		}
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(name)) ||
			strings.Contains(strings.ToLower(name), strings.ToLower(s.Name)) {
			return s, f.fuzzySim, nil
		}
	}
	return nil, 0, gorm.ErrRecordNotFound
}

func costcoStore() *entities.Store {
	return &entities.Store{
		ID:          uuid.New(),
		Name:        "Costco",
		FullAddress: "2370 Ottawa St, Port Coquitlam, BC V3B 8A4",
		City:        "Port Coquitlam",
		Province:    "BC",
		PostalCode:  "V3B 5R9",
	}
}

func TestResolveStore(t *testing.T) {
	ctx := context.Background()

	t.Run("exact full address match wins with confidence 1.0", func(t *testing.T) {
		target := costcoStore()
		svc := NewStoreService(&fakeStoreRepository{stores: []*entities.Store{target}})

		res, err := svc.ResolveStore(ctx, domain.ResolveStoreRequest{
			MerchantName: "COSTCO WHOLESALE",
			AddressText:  "2370 Ottawa St, Port Coquitlam, BC V3B 8A4",
		})
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, domain.MatchMethodExactAddress, res.Method)
		assert.Equal(t, 1.0, res.Confidence)
		assert.Equal(t, target.ID.String(), res.Store.ID)
	})

	t.Run("postal code plus name match returns confidence 0.9", func(t *testing.T) {
		target := costcoStore()
		svc := NewStoreService(&fakeStoreRepository{stores: []*entities.Store{target}})

		res, err := svc.ResolveStore(ctx, domain.ResolveStoreRequest{
			MerchantName: "Costco",
			AddressText:  "V3B 5R9",
		})
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, domain.MatchMethodPostalCodeName, res.Method)
		assert.InDelta(t, 0.9, res.Confidence, 0.001)
	})

	t.Run("fuzzy match scales confidence by similarity", func(t *testing.T) {
		target := costcoStore()
		svc := NewStoreService(&fakeStoreRepository{stores: []*entities.Store{target}, fuzzySim: 0.72})

		res, err := svc.ResolveStore(ctx, domain.ResolveStoreRequest{
			MerchantName: "COSTCO",
			AddressText:  "somewhere, Port Coquitlam, BC",
		})
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, domain.MatchMethodFuzzyNameLocation, res.Method)
		assert.InDelta(t, 0.72, res.Confidence, 0.001)
	})

	t.Run("fuzzy match below floor is not found", func(t *testing.T) {
		target := costcoStore()
		svc := NewStoreService(&fakeStoreRepository{stores: []*entities.Store{target}, fuzzySim: 0.42})

		res, err := svc.ResolveStore(ctx, domain.ResolveStoreRequest{
			MerchantName: "COSTCO",
			AddressText:  "somewhere, Port Coquitlam, BC",
		})
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.True(t, res.RequiresUserConfirmation)
	})

	t.Run("no match requires user confirmation and returns extracted fields", func(t *testing.T) {
		svc := NewStoreService(&fakeStoreRepository{})

		res, err := svc.ResolveStore(ctx, domain.ResolveStoreRequest{
			MerchantName: "UNKNOWN MART",
			AddressText:  "999 Nowhere Ave, Surrey, BC V4N 1B2",
		})
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.True(t, res.RequiresUserConfirmation)
		assert.Equal(t, "V4N 1B2", res.Extracted.PostalCode)
		assert.Equal(t, "Surrey", res.Extracted.City)
	})
}

func TestExtractAddress(t *testing.T) {
	t.Run("full canadian address", func(t *testing.T) {
		extracted := extractAddress("2370 Ottawa St, Port Coquitlam, BC V3B 8A4")
		assert.Equal(t, "2370", extracted.StreetNumber)
		assert.Equal(t, "Ottawa St", extracted.Road)
		assert.Equal(t, "Port Coquitlam", extracted.City)
		assert.Equal(t, "BC", extracted.Province)
		assert.Equal(t, "V3B 8A4", extracted.PostalCode)
	})

	t.Run("postal code only", func(t *testing.T) {
		extracted := extractAddress("V3B 5R9")
		assert.Equal(t, "V3B 5R9", extracted.PostalCode)
		assert.Empty(t, extracted.City)
	})

	t.Run("empty input", func(t *testing.T) {
		extracted := extractAddress("")
		assert.Empty(t, extracted.FullAddress)
		assert.Empty(t, extracted.PostalCode)
	})
}

func TestNormalizeMerchantName(t *testing.T) {
	assert.Equal(t, "Costco", normalizeMerchantName("Costco Wholesale"))
	assert.Equal(t, "Walmart", normalizeMerchantName("  Walmart  "))
}
