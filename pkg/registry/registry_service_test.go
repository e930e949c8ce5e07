package registry

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"PriceLens-Backend/pkg/similarity"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRegistryRepository struct {
	products map[string]*entities.NormalizedProduct

	// createErrs are consumed in order by Create; nil means success.
	createErrs []error
	creates    int
	increments []string
}

func newFakeRegistryRepository() *fakeRegistryRepository {
	return &fakeRegistryRepository{products: map[string]*entities.NormalizedProduct{}}
}

func (f *fakeRegistryRepository) key(merchant, rawName string) string {
	return merchant + "|" + rawName
}

func (f *fakeRegistryRepository) Create(_ context.Context, product *entities.NormalizedProduct) error {
	f.creates++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := f.products[f.key(product.Merchant, product.RawName)]; ok {
		return gorm.ErrDuplicatedKey
	}
	product.ID = uuid.New()
	f.products[f.key(product.Merchant, product.RawName)] = product
	return nil
}

func (f *fakeRegistryRepository) GetByID(_ context.Context, id string) (*entities.NormalizedProduct, error) {
	for _, p := range f.products {
		if p.ID.String() == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRegistryRepository) GetByMerchantAndRawName(_ context.Context, merchant, rawName string) (*entities.NormalizedProduct, error) {
	if p, ok := f.products[f.key(merchant, rawName)]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRegistryRepository) IncrementMatch(_ context.Context, id string) error {
	f.increments = append(f.increments, id)
	for _, p := range f.products {
		if p.ID.String() == id {
			p.MatchCount++
		}
	}
	return nil
}

func (f *fakeRegistryRepository) GetStats(_ context.Context) (domain.NormalizationStatsResponse, error) {
	return domain.NormalizationStatsResponse{TotalProducts: int64(len(f.products))}, nil
}

// fakeSearchService returns canned vector-search candidates; Search and
// SearchBatch are unused by the registry.
type fakeSearchService struct {
	candidates []similarity.Candidate
}

func (f *fakeSearchService) Search(context.Context, domain.SearchSimilarRequest) (domain.SearchSimilarResponse, error) {
	panic("not used")
}

func (f *fakeSearchService) SearchBatch(context.Context, domain.BatchSearchSimilarRequest) (domain.BatchSearchSimilarResponse, error) {
	panic("not used")
}

func (f *fakeSearchService) SearchVector(_ context.Context, _ []float32, _ string, threshold float64, _ int) ([]similarity.Candidate, error) {
	var out []similarity.Candidate
	for _, c := range f.candidates {
		if c.Similarity >= threshold {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestResolveOrCreate(t *testing.T) {
	ctx := context.Background()
	vec := []float32{1, 0, 0}

	t.Run("reuses close match and increments its counter", func(t *testing.T) {
		repo := newFakeRegistryRepository()
		existing := &entities.NormalizedProduct{ID: uuid.New(), Merchant: "Costco", RawName: "KS ORG PB", MatchCount: 4}
		repo.products[repo.key("Costco", "KS ORG PB")] = existing

		svc := NewRegistryService(repo, &fakeSearchService{candidates: []similarity.Candidate{
			{Product: existing, Similarity: 0.93},
		}})

		res, err := svc.ResolveOrCreate(ctx, "Costco", "KS ORGANIC PB", vec, Attributes{})
		require.NoError(t, err)
		assert.True(t, res.Reused)
		assert.InDelta(t, 0.93, res.Similarity, 0.001)
		assert.Equal(t, 5, existing.MatchCount)
		assert.Zero(t, repo.creates)
	})

	t.Run("creates when nothing clears the reuse threshold", func(t *testing.T) {
		repo := newFakeRegistryRepository()
		far := &entities.NormalizedProduct{ID: uuid.New(), Merchant: "Costco", RawName: "MOTOR OIL"}

		svc := NewRegistryService(repo, &fakeSearchService{candidates: []similarity.Candidate{
			{Product: far, Similarity: 0.40},
		}})

		res, err := svc.ResolveOrCreate(ctx, "Costco", "KS ORG PB", vec, Attributes{
			NormalizedName: "ks organic peanut butter",
			Confidence:     0.9,
		})
		require.NoError(t, err)
		assert.False(t, res.Reused)
		assert.Equal(t, "KS ORG PB", res.Product.RawName)
		assert.Equal(t, 1, res.Product.MatchCount)
		require.NotNil(t, res.Product.LastMatchedAt)

		stored, err := res.Product.EmbeddingVector()
		require.NoError(t, err)
		assert.Equal(t, vec, stored)
	})

	t.Run("lost create race becomes a reuse", func(t *testing.T) {
		repo := newFakeRegistryRepository()
		winner := &entities.NormalizedProduct{ID: uuid.New(), Merchant: "Costco", RawName: "KS ORG PB", MatchCount: 1}
		repo.products[repo.key("Costco", "KS ORG PB")] = winner
		repo.createErrs = []error{gorm.ErrDuplicatedKey}

		svc := NewRegistryService(repo, &fakeSearchService{})

		res, err := svc.ResolveOrCreate(ctx, "Costco", "KS ORG PB", vec, Attributes{})
		require.NoError(t, err)
		assert.True(t, res.Reused)
		assert.Equal(t, winner.ID, res.Product.ID)
		assert.Equal(t, 2, winner.MatchCount)
		assert.Equal(t, 1.0, res.Similarity)
	})

	t.Run("nil vector falls back to exact raw name lookup", func(t *testing.T) {
		repo := newFakeRegistryRepository()
		existing := &entities.NormalizedProduct{ID: uuid.New(), Merchant: "Costco", RawName: "KS ORG PB", MatchCount: 1}
		repo.products[repo.key("Costco", "KS ORG PB")] = existing

		svc := NewRegistryService(repo, &fakeSearchService{})

		res, err := svc.ResolveOrCreate(ctx, "Costco", "KS ORG PB", nil, Attributes{})
		require.NoError(t, err)
		assert.True(t, res.Reused)
		assert.Equal(t, 2, existing.MatchCount)
	})

	t.Run("nil vector with no exact match creates without embedding", func(t *testing.T) {
		repo := newFakeRegistryRepository()
		svc := NewRegistryService(repo, &fakeSearchService{})

		res, err := svc.ResolveOrCreate(ctx, "Costco", "NEW ITEM", nil, Attributes{NormalizedName: "new item"})
		require.NoError(t, err)
		assert.False(t, res.Reused)

		stored, err := res.Product.EmbeddingVector()
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("rejects empty raw name", func(t *testing.T) {
		svc := NewRegistryService(newFakeRegistryRepository(), &fakeSearchService{})
		_, err := svc.ResolveOrCreate(ctx, "Costco", "", vec, Attributes{})
		assert.ErrorIs(t, err, domain.ErrEmptyRawName)
	})
}
