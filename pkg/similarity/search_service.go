package similarity

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"context"
	"sort"

	"PriceLens-Backend/pkg/embedding"
)

type (
	// Candidate pairs a registry entry with its similarity to the query.
	Candidate struct {
		Product    *entities.NormalizedProduct
		Similarity float64
	}

	SearchService interface {
		Search(ctx context.Context, req domain.SearchSimilarRequest) (domain.SearchSimilarResponse, error)
		SearchBatch(ctx context.Context, req domain.BatchSearchSimilarRequest) (domain.BatchSearchSimilarResponse, error)
		// SearchVector ranks an already-embedded query; used by the registry
		// so one embedding round trip serves both reuse check and proposals.
		SearchVector(ctx context.Context, vector []float32, merchant string, threshold float64, limit int) ([]Candidate, error)
	}

	searchService struct {
		searchRepository SearchRepository
		embedder         embedding.Embedder
	}
)

func NewSearchService(searchRepository SearchRepository, embedder embedding.Embedder) SearchService {
	return &searchService{
		searchRepository: searchRepository,
		embedder:         embedder,
	}
}

func (s *searchService) Search(ctx context.Context, req domain.SearchSimilarRequest) (domain.SearchSimilarResponse, error) {
	threshold, limit, err := normalizeParams(req.Threshold, req.Limit)
	if err != nil {
		return domain.SearchSimilarResponse{}, err
	}
	if req.Query == "" {
		return domain.SearchSimilarResponse{}, domain.ErrEmptyRawName
	}

	vector, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return domain.SearchSimilarResponse{}, err
	}

	candidates, err := s.SearchVector(ctx, vector, req.Merchant, threshold, limit)
	if err != nil {
		return domain.SearchSimilarResponse{}, err
	}

	return toResponse(req.Query, candidates), nil
}

// SearchBatch runs each query independently; one vector round trip covers
// all of them, but result sets never interact.
func (s *searchService) SearchBatch(ctx context.Context, req domain.BatchSearchSimilarRequest) (domain.BatchSearchSimilarResponse, error) {
	if len(req.Queries) > domain.MaxBatchQueries {
		return domain.BatchSearchSimilarResponse{}, domain.ErrTooManyBatchQueries
	}
	threshold, limit, err := normalizeParams(req.Threshold, req.LimitPerQuery)
	if err != nil {
		return domain.BatchSearchSimilarResponse{}, err
	}
	for _, query := range req.Queries {
		if query == "" {
			return domain.BatchSearchSimilarResponse{}, domain.ErrEmptyRawName
		}
	}

	vectors, err := s.embedder.EmbedBatch(ctx, req.Queries)
	if err != nil {
		return domain.BatchSearchSimilarResponse{}, err
	}

	response := domain.BatchSearchSimilarResponse{
		Results: make([]domain.SearchSimilarResponse, 0, len(req.Queries)),
	}
	for i, query := range req.Queries {
		candidates, err := s.SearchVector(ctx, vectors[i], req.Merchant, threshold, limit)
		if err != nil {
			return domain.BatchSearchSimilarResponse{}, err
		}
		response.Results = append(response.Results, toResponse(query, candidates))
	}
	return response, nil
}

func (s *searchService) SearchVector(ctx context.Context, vector []float32, merchant string, threshold float64, limit int) ([]Candidate, error) {
	pool, err := s.searchRepository.GetEmbeddedByMerchant(ctx, merchant)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(pool))
	for _, product := range pool {
		stored, err := product.EmbeddingVector()
		if err != nil || stored == nil {
			continue
		}
		if sim := Cosine(vector, stored); sim >= threshold {
			candidates = append(candidates, Candidate{Product: product, Similarity: sim})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		if candidates[i].Product.MatchCount != candidates[j].Product.MatchCount {
			return candidates[i].Product.MatchCount > candidates[j].Product.MatchCount
		}
		iAt, jAt := candidates[i].Product.LastMatchedAt, candidates[j].Product.LastMatchedAt
		if iAt != nil && jAt != nil {
			return iAt.After(*jAt)
		}
		return iAt != nil
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func normalizeParams(threshold *float64, limit int) (float64, int, error) {
	t := domain.SimilarityReuseThreshold
	if threshold != nil {
		t = *threshold
	}
	if t < 0 || t > 1 {
		return 0, 0, domain.ErrInvalidThreshold
	}
	if limit == 0 {
		limit = domain.DefaultSearchLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > domain.MaxSearchLimit {
		limit = domain.MaxSearchLimit
	}
	return t, limit, nil
}

func toResponse(query string, candidates []Candidate) domain.SearchSimilarResponse {
	response := domain.SearchSimilarResponse{
		Query:      query,
		HasMatches: len(candidates) > 0,
		Candidates: make([]domain.NormalizedProductResponse, 0, len(candidates)),
	}
	for _, candidate := range candidates {
		response.Candidates = append(response.Candidates, domain.NormalizedProductResponse{
			ID:              candidate.Product.ID.String(),
			Merchant:        candidate.Product.Merchant,
			RawName:         candidate.Product.RawName,
			NormalizedName:  candidate.Product.NormalizedName,
			Brand:           candidate.Product.Brand,
			Category:        candidate.Product.Category,
			ConfidenceScore: candidate.Product.ConfidenceScore,
			MatchCount:      candidate.Product.MatchCount,
			LastMatchedAt:   candidate.Product.LastMatchedAt,
			Similarity:      candidate.Similarity,
		})
	}
	return response
}
