package registry

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"PriceLens-Backend/pkg/similarity"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// createRetries bounds the duplicate-key retry loop. One retry is enough to
// turn a lost race into a reuse, the second is slack for cascading races.
const createRetries = 2

type (
	// Attributes are the classifier's best normalized fields for a brand-new
	// registry entry.
	Attributes struct {
		NormalizedName string
		Brand          string
		Category       string
		Barcode        string
		Confidence     float64
	}

	// Resolution reports whether an existing entry was reused and at what
	// similarity, or a new one was created.
	Resolution struct {
		Product    *entities.NormalizedProduct
		Reused     bool
		Similarity float64
	}

	RegistryService interface {
		ResolveOrCreate(ctx context.Context, merchant, rawName string, vector []float32, attrs Attributes) (Resolution, error)
		GetStats(ctx context.Context) (domain.NormalizationStatsResponse, error)
	}

	registryService struct {
		registryRepository RegistryRepository
		searchService      similarity.SearchService
	}
)

func NewRegistryService(registryRepository RegistryRepository, searchService similarity.SearchService) RegistryService {
	return &registryService{
		registryRepository: registryRepository,
		searchService:      searchService,
	}
}

// ResolveOrCreate reuses the closest registry entry above the reuse
// threshold, or creates a fresh one. A nil vector means the embedding step
// was unavailable and reuse falls back to the exact (merchant, raw_name)
// lookup. Concurrent calls for the same pair converge on a single row: the
// storage uniqueness constraint arbitrates and the loser retries as a reuse.
func (s *registryService) ResolveOrCreate(ctx context.Context, merchant, rawName string, vector []float32, attrs Attributes) (Resolution, error) {
	if rawName == "" {
		return Resolution{}, domain.ErrEmptyRawName
	}

	if vector != nil {
		candidates, err := s.searchService.SearchVector(ctx, vector, merchant, domain.SimilarityReuseThreshold, 1)
		if err != nil {
			return Resolution{}, err
		}
		if len(candidates) > 0 {
			best := candidates[0]
			if err := s.registryRepository.IncrementMatch(ctx, best.Product.ID.String()); err != nil {
				return Resolution{}, err
			}
			return Resolution{Product: best.Product, Reused: true, Similarity: best.Similarity}, nil
		}
	} else {
		existing, err := s.registryRepository.GetByMerchantAndRawName(ctx, merchant, rawName)
		if err == nil {
			if err := s.registryRepository.IncrementMatch(ctx, existing.ID.String()); err != nil {
				return Resolution{}, err
			}
			return Resolution{Product: existing, Reused: true, Similarity: 1.0}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return Resolution{}, err
		}
	}

	for attempt := 0; ; attempt++ {
		now := time.Now()
		product := &entities.NormalizedProduct{
			Merchant:        merchant,
			RawName:         rawName,
			NormalizedName:  attrs.NormalizedName,
			Brand:           attrs.Brand,
			Category:        attrs.Category,
			Barcode:         attrs.Barcode,
			ConfidenceScore: attrs.Confidence,
			MatchCount:      1,
			LastMatchedAt:   &now,
		}
		if err := product.SetEmbeddingVector(vector); err != nil {
			return Resolution{}, err
		}

		err := s.registryRepository.Create(ctx, product)
		if err == nil {
			return Resolution{Product: product, Reused: false}, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= createRetries {
			return Resolution{}, err
		}

		// Lost the race: another worker created the same (merchant, raw_name)
		// first. Read theirs and count this occurrence against it.
		existing, readErr := s.registryRepository.GetByMerchantAndRawName(ctx, merchant, rawName)
		if readErr != nil {
			if errors.Is(readErr, gorm.ErrRecordNotFound) {
				continue
			}
			return Resolution{}, readErr
		}
		if err := s.registryRepository.IncrementMatch(ctx, existing.ID.String()); err != nil {
			return Resolution{}, err
		}
		return Resolution{Product: existing, Reused: true, Similarity: 1.0}, nil
	}
}

func (s *registryService) GetStats(ctx context.Context) (domain.NormalizationStatsResponse, error) {
	return s.registryRepository.GetStats(ctx)
}
