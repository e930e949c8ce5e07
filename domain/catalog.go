package domain

import (
	"errors"
)

// LinkingMethod is the closed set of ways a normalized product can be linked
// to the canonical catalog.
type LinkingMethod string

const (
	LinkingMethodBarcode   LinkingMethod = "barcode_match"
	LinkingMethodEmbedding LinkingMethod = "embedding_similarity"
)

const (
	// LinkingEligibilityFloor is the minimum confidence_score a normalized
	// product needs before catalog linking is attempted.
	LinkingEligibilityFloor = 0.80
	// CatalogSimilarityThreshold is stricter than registry reuse: a wrong
	// catalog link is worse than a missing one.
	CatalogSimilarityThreshold = 0.90
)

var (
	MessageSuccessLinkProduct   = "product linked successfully"
	MessageSuccessUnlinkProduct = "product unlinked successfully"
	MessageFailedLinkProduct    = "failed to link product"
	MessageFailedUnlinkProduct  = "failed to unlink product"

	ErrNotEligibleForLinking = errors.New("normalized product not eligible for linking")
)

type (
	LinkProductResponse struct {
		Linked     bool          `json:"linked"`
		ProductID  string        `json:"product_id,omitempty"`
		Method     LinkingMethod `json:"method,omitempty"`
		Confidence float64       `json:"confidence,omitempty"`
		Reason     string        `json:"reason,omitempty"`
	}
)
