package linking

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	LinkingService interface {
		ProposeLink(ctx context.Context, receiptItemID, normalizedProductID uuid.UUID, confidence float64, method domain.NormalizationMethod, similarity *float64) (*entities.ReceiptItemNormalization, error)
		SelectLink(ctx context.Context, receiptItemID, normalizedProductID string) error
		AutoSelect(ctx context.Context, receiptItemID string) (*entities.ReceiptItemNormalization, error)
	}

	linkingService struct {
		linkingRepository LinkingRepository
	}
)

func NewLinkingService(linkingRepository LinkingRepository) LinkingService {
	return &linkingService{linkingRepository: linkingRepository}
}

// ProposeLink records a candidate pairing. Re-proposing an existing pair
// refreshes its scores instead of duplicating the row; the uniqueness
// constraint on (receipt_item, normalized_product) backstops races.
func (s *linkingService) ProposeLink(ctx context.Context, receiptItemID, normalizedProductID uuid.UUID, confidence float64, method domain.NormalizationMethod, similarity *float64) (*entities.ReceiptItemNormalization, error) {
	proposal := &entities.ReceiptItemNormalization{
		ReceiptItemID:       receiptItemID,
		NormalizedProductID: normalizedProductID,
		ConfidenceScore:     confidence,
		NormalizationMethod: string(method),
		SimilarityScore:     similarity,
	}

	err := s.linkingRepository.Create(ctx, proposal)
	if err == nil {
		return proposal, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}

	existing, err := s.linkingRepository.GetProposal(ctx, receiptItemID.String(), normalizedProductID.String())
	if err != nil {
		return nil, err
	}
	if err := s.linkingRepository.UpdateScores(ctx, existing.ID.String(), confidence, similarity); err != nil {
		return nil, err
	}
	existing.ConfidenceScore = confidence
	existing.SimilarityScore = similarity
	return existing, nil
}

func (s *linkingService) SelectLink(ctx context.Context, receiptItemID, normalizedProductID string) error {
	return s.linkingRepository.SelectExclusive(ctx, receiptItemID, normalizedProductID)
}

// AutoSelect applies the default policy: best rule-based proposal above the
// rule floor, otherwise best embedding proposal above the reuse threshold,
// otherwise the best remaining proposal so the item never ends up with
// proposals but no selection. Ties go to the earliest proposal.
func (s *linkingService) AutoSelect(ctx context.Context, receiptItemID string) (*entities.ReceiptItemNormalization, error) {
	proposals, err := s.linkingRepository.ListByReceiptItem(ctx, receiptItemID)
	if err != nil {
		return nil, err
	}
	if len(proposals) == 0 {
		return nil, domain.ErrProposalNotFound
	}

	winner := pickRuleBased(proposals)
	if winner == nil {
		winner = pickEmbedding(proposals)
	}
	if winner == nil {
		winner = pickHighestConfidence(proposals)
	}

	if err := s.linkingRepository.SelectExclusive(ctx, receiptItemID, winner.NormalizedProductID.String()); err != nil {
		return nil, err
	}
	winner.IsSelected = true
	return winner, nil
}

func pickRuleBased(proposals []*entities.ReceiptItemNormalization) *entities.ReceiptItemNormalization {
	var best *entities.ReceiptItemNormalization
	for _, p := range proposals {
		if p.NormalizationMethod != string(domain.NormalizationMethodRuleBased) {
			continue
		}
		if p.ConfidenceScore < domain.RuleConfidenceFloor {
			continue
		}
		if best == nil || p.ConfidenceScore > best.ConfidenceScore {
			best = p
		}
	}
	return best
}

func pickEmbedding(proposals []*entities.ReceiptItemNormalization) *entities.ReceiptItemNormalization {
	var best *entities.ReceiptItemNormalization
	for _, p := range proposals {
		if p.NormalizationMethod != string(domain.NormalizationMethodEmbedding) || p.SimilarityScore == nil {
			continue
		}
		if *p.SimilarityScore < domain.SimilarityReuseThreshold {
			continue
		}
		if best == nil || *p.SimilarityScore > *best.SimilarityScore {
			best = p
		}
	}
	return best
}

func pickHighestConfidence(proposals []*entities.ReceiptItemNormalization) *entities.ReceiptItemNormalization {
	best := proposals[0]
	for _, p := range proposals[1:] {
		if p.ConfidenceScore > best.ConfidenceScore {
			best = p
		}
	}
	return best
}
