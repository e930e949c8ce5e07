package catalog

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"PriceLens-Backend/pkg/embedding"
	"PriceLens-Backend/pkg/registry"
	"PriceLens-Backend/pkg/similarity"
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

// candidatePrefilterLimit caps how many trigram-prefiltered catalog rows get
// embedded per linking attempt.
const candidatePrefilterLimit = 25

type (
	CatalogService interface {
		LinkToCatalog(ctx context.Context, normalizedProductID string) (domain.LinkProductResponse, error)
		Unlink(ctx context.Context, normalizedProductID string) error
	}

	catalogService struct {
		catalogRepository  CatalogRepository
		registryRepository registry.RegistryRepository
		embedder           embedding.Embedder
	}
)

func NewCatalogService(catalogRepository CatalogRepository, registryRepository registry.RegistryRepository, embedder embedding.Embedder) CatalogService {
	return &catalogService{
		catalogRepository:  catalogRepository,
		registryRepository: registryRepository,
		embedder:           embedder,
	}
}

// LinkToCatalog tries barcode_match first, then embedding_similarity against
// the catalog under the stricter threshold. Already-linked entries are a
// no-op; entries below the eligibility floor are rejected outright.
func (s *catalogService) LinkToCatalog(ctx context.Context, normalizedProductID string) (domain.LinkProductResponse, error) {
	product, err := s.registryRepository.GetByID(ctx, normalizedProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LinkProductResponse{}, domain.ErrNormalizedProductNotFound
		}
		return domain.LinkProductResponse{}, err
	}

	if product.LinkedProductSk != nil {
		return domain.LinkProductResponse{
			Linked:     true,
			ProductID:  product.LinkedProductSk.String(),
			Method:     domain.LinkingMethod(product.LinkingMethod),
			Confidence: product.LinkingConfidence,
			Reason:     "already_linked",
		}, nil
	}

	if product.ConfidenceScore < domain.LinkingEligibilityFloor {
		return domain.LinkProductResponse{}, domain.ErrNotEligibleForLinking
	}

	if product.Barcode != "" {
		match, err := s.catalogRepository.FindByBarcode(ctx, product.Barcode)
		if err == nil {
			return s.commitLink(ctx, product, match, domain.LinkingMethodBarcode, 1.0)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LinkProductResponse{}, err
		}
	}

	return s.linkBySimilarity(ctx, product)
}

func (s *catalogService) linkBySimilarity(ctx context.Context, product *entities.NormalizedProduct) (domain.LinkProductResponse, error) {
	queryName := product.NormalizedName
	if queryName == "" {
		queryName = product.RawName
	}

	candidates, err := s.catalogRepository.FindCandidatesByName(ctx, queryName, candidatePrefilterLimit)
	if err != nil {
		return domain.LinkProductResponse{}, err
	}
	if len(candidates) == 0 {
		return domain.LinkProductResponse{Linked: false, Reason: "no_match"}, nil
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, queryName)
	for _, candidate := range candidates {
		texts = append(texts, candidate.Name)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if errors.Is(err, embedding.ErrUnavailable) {
			log.Printf("catalog linking degraded, embedding unavailable: %v", err)
			return domain.LinkProductResponse{Linked: false, Reason: "embedding_unavailable"}, nil
		}
		return domain.LinkProductResponse{}, err
	}

	var best *entities.Product
	var bestSim float64
	for i, candidate := range candidates {
		if sim := similarity.Cosine(vectors[0], vectors[i+1]); sim > bestSim {
			best = candidate
			bestSim = sim
		}
	}

	if best == nil || bestSim < domain.CatalogSimilarityThreshold {
		return domain.LinkProductResponse{Linked: false, Reason: "no_match"}, nil
	}
	return s.commitLink(ctx, product, best, domain.LinkingMethodEmbedding, bestSim)
}

func (s *catalogService) commitLink(ctx context.Context, product *entities.NormalizedProduct, match *entities.Product, method domain.LinkingMethod, confidence float64) (domain.LinkProductResponse, error) {
	applied, err := s.catalogRepository.SetLinking(ctx, product.ID.String(), match.ID.String(), string(method), confidence, time.Now())
	if err != nil {
		return domain.LinkProductResponse{}, err
	}
	if !applied {
		// Another worker linked it between our read and write; keep theirs.
		current, err := s.registryRepository.GetByID(ctx, product.ID.String())
		if err != nil {
			return domain.LinkProductResponse{}, err
		}
		return domain.LinkProductResponse{
			Linked:     true,
			ProductID:  current.LinkedProductSk.String(),
			Method:     domain.LinkingMethod(current.LinkingMethod),
			Confidence: current.LinkingConfidence,
			Reason:     "already_linked",
		}, nil
	}

	return domain.LinkProductResponse{
		Linked:     true,
		ProductID:  match.ID.String(),
		Method:     method,
		Confidence: confidence,
	}, nil
}

// Unlink clears all four linking fields. Always permitted, never cascades to
// the item-level normalization rows.
func (s *catalogService) Unlink(ctx context.Context, normalizedProductID string) error {
	if _, err := s.registryRepository.GetByID(ctx, normalizedProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNormalizedProductNotFound
		}
		return err
	}
	return s.catalogRepository.ClearLinking(ctx, normalizedProductID)
}
