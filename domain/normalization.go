package domain

import (
	"errors"
	"time"
)

// NormalizationMethod is the closed set of ways a receipt item can be tied to
// a normalized product candidate.
type NormalizationMethod string

const (
	NormalizationMethodRuleBased NormalizationMethod = "rule_based"
	NormalizationMethodEmbedding NormalizationMethod = "embedding_similarity"
)

const (
	// SimilarityReuseThreshold gates registry reuse and embedding candidates.
	SimilarityReuseThreshold = 0.85
	// RuleConfidenceFloor gates auto-selection of rule-based proposals.
	RuleConfidenceFloor = 0.60

	DefaultSearchLimit = 5
	MaxSearchLimit     = 20
	MaxBatchQueries    = 50
)

var (
	MessageSuccessSearchSimilar = "similar products retrieved successfully"
	MessageFailedSearchSimilar  = "failed to search similar products"
	MessageSuccessGetStats      = "normalization statistics retrieved successfully"
	MessageFailedGetStats       = "failed to retrieve normalization statistics"

	ErrEmptyRawName              = errors.New("raw name must not be empty")
	ErrInvalidThreshold          = errors.New("threshold must be between 0 and 1")
	ErrTooManyBatchQueries       = errors.New("too many batch queries")
	ErrProposalNotFound          = errors.New("normalization proposal not found")
	ErrNormalizedProductNotFound = errors.New("normalized product not found")
)

type (
	// Threshold is a pointer so an explicit 0 ("return everything") stays
	// distinguishable from an omitted field, which falls back to the default.
	SearchSimilarRequest struct {
		Query     string   `json:"query" validate:"required"`
		Merchant  string   `json:"merchant" validate:"required"`
		Threshold *float64 `json:"threshold" validate:"omitempty,min=0,max=1"`
		Limit     int      `json:"limit" validate:"omitempty,min=1,max=20"`
	}

	BatchSearchSimilarRequest struct {
		Queries       []string `json:"queries" validate:"required,min=1,dive,required"`
		Merchant      string   `json:"merchant" validate:"required"`
		Threshold     *float64 `json:"threshold" validate:"omitempty,min=0,max=1"`
		LimitPerQuery int      `json:"limit_per_query" validate:"omitempty,min=1,max=20"`
	}

	NormalizedProductResponse struct {
		ID              string     `json:"id"`
		Merchant        string     `json:"merchant"`
		RawName         string     `json:"raw_name"`
		NormalizedName  string     `json:"normalized_name"`
		Brand           string     `json:"brand,omitempty"`
		Category        string     `json:"category,omitempty"`
		ConfidenceScore float64    `json:"confidence_score"`
		MatchCount      int        `json:"match_count"`
		LastMatchedAt   *time.Time `json:"last_matched_at,omitempty"`
		Similarity      float64    `json:"similarity,omitempty"`
	}

	SearchSimilarResponse struct {
		Query      string                      `json:"query"`
		HasMatches bool                        `json:"has_matches"`
		Candidates []NormalizedProductResponse `json:"candidates"`
	}

	BatchSearchSimilarResponse struct {
		Results []SearchSimilarResponse `json:"results"`
	}

	NormalizationStatsResponse struct {
		TotalProducts    int64 `json:"total_products"`
		LinkedProducts   int64 `json:"linked_products"`
		ByBarcode        int64 `json:"by_barcode"`
		ByEmbedding      int64 `json:"by_embedding"`
		UnlinkedEligible int64 `json:"unlinked_eligible"`
	}
)
