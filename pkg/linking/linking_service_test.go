package linking

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeLinkingRepository struct {
	// proposals preserves insertion order, mirroring the created_at ordering
	// the real repository returns.
	proposals []*entities.ReceiptItemNormalization
}

func (f *fakeLinkingRepository) find(receiptItemID, normalizedProductID string) *entities.ReceiptItemNormalization {
	for _, p := range f.proposals {
		if p.ReceiptItemID.String() == receiptItemID && p.NormalizedProductID.String() == normalizedProductID {
			return p
		}
	}
	return nil
}

func (f *fakeLinkingRepository) Create(_ context.Context, proposal *entities.ReceiptItemNormalization) error {
	if f.find(proposal.ReceiptItemID.String(), proposal.NormalizedProductID.String()) != nil {
		return gorm.ErrDuplicatedKey
	}
	proposal.ID = uuid.New()
	f.proposals = append(f.proposals, proposal)
	return nil
}

func (f *fakeLinkingRepository) GetProposal(_ context.Context, receiptItemID, normalizedProductID string) (*entities.ReceiptItemNormalization, error) {
	if p := f.find(receiptItemID, normalizedProductID); p != nil {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLinkingRepository) UpdateScores(_ context.Context, id string, confidence float64, similarity *float64) error {
	for _, p := range f.proposals {
		if p.ID.String() == id {
			p.ConfidenceScore = confidence
			p.SimilarityScore = similarity
		}
	}
	return nil
}

func (f *fakeLinkingRepository) ListByReceiptItem(_ context.Context, receiptItemID string) ([]*entities.ReceiptItemNormalization, error) {
	var out []*entities.ReceiptItemNormalization
	for _, p := range f.proposals {
		if p.ReceiptItemID.String() == receiptItemID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLinkingRepository) SelectExclusive(_ context.Context, receiptItemID, normalizedProductID string) error {
	target := f.find(receiptItemID, normalizedProductID)
	if target == nil {
		return domain.ErrProposalNotFound
	}
	for _, p := range f.proposals {
		if p.ReceiptItemID.String() == receiptItemID {
			p.IsSelected = p == target
		}
	}
	return nil
}

func (f *fakeLinkingRepository) selectedFor(receiptItemID string) []*entities.ReceiptItemNormalization {
	var out []*entities.ReceiptItemNormalization
	for _, p := range f.proposals {
		if p.ReceiptItemID.String() == receiptItemID && p.IsSelected {
			out = append(out, p)
		}
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }

func TestProposeLink(t *testing.T) {
	ctx := context.Background()
	itemID := uuid.New()
	productID := uuid.New()

	t.Run("creates a new proposal", func(t *testing.T) {
		repo := &fakeLinkingRepository{}
		svc := NewLinkingService(repo)

		proposal, err := svc.ProposeLink(ctx, itemID, productID, 0.9, domain.NormalizationMethodRuleBased, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.9, proposal.ConfidenceScore)
		assert.Len(t, repo.proposals, 1)
	})

	t.Run("re-proposing the same pair refreshes scores without duplicating", func(t *testing.T) {
		repo := &fakeLinkingRepository{}
		svc := NewLinkingService(repo)

		_, err := svc.ProposeLink(ctx, itemID, productID, 0.7, domain.NormalizationMethodEmbedding, floatPtr(0.86))
		require.NoError(t, err)

		updated, err := svc.ProposeLink(ctx, itemID, productID, 0.95, domain.NormalizationMethodEmbedding, floatPtr(0.97))
		require.NoError(t, err)
		assert.Equal(t, 0.95, updated.ConfidenceScore)
		require.NotNil(t, updated.SimilarityScore)
		assert.Equal(t, 0.97, *updated.SimilarityScore)
		assert.Len(t, repo.proposals, 1)
	})
}

func TestSelectLink(t *testing.T) {
	ctx := context.Background()
	itemID := uuid.New()

	t.Run("selection is exclusive per receipt item", func(t *testing.T) {
		repo := &fakeLinkingRepository{}
		svc := NewLinkingService(repo)

		first, err := svc.ProposeLink(ctx, itemID, uuid.New(), 0.9, domain.NormalizationMethodRuleBased, nil)
		require.NoError(t, err)
		second, err := svc.ProposeLink(ctx, itemID, uuid.New(), 0.8, domain.NormalizationMethodRuleBased, nil)
		require.NoError(t, err)

		require.NoError(t, svc.SelectLink(ctx, itemID.String(), first.NormalizedProductID.String()))
		require.NoError(t, svc.SelectLink(ctx, itemID.String(), second.NormalizedProductID.String()))

		selected := repo.selectedFor(itemID.String())
		require.Len(t, selected, 1)
		assert.Equal(t, second.NormalizedProductID, selected[0].NormalizedProductID)
	})

	t.Run("selecting an unknown pair fails", func(t *testing.T) {
		svc := NewLinkingService(&fakeLinkingRepository{})
		err := svc.SelectLink(ctx, uuid.NewString(), uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrProposalNotFound)
	})
}

func TestAutoSelect(t *testing.T) {
	ctx := context.Background()

	t.Run("rule-based above floor outranks higher-similarity embedding", func(t *testing.T) {
		itemID := uuid.New()
		repo := &fakeLinkingRepository{}
		svc := NewLinkingService(repo)

		rule, err := svc.ProposeLink(ctx, itemID, uuid.New(), 0.65, domain.NormalizationMethodRuleBased, nil)
		require.NoError(t, err)
		_, err = svc.ProposeLink(ctx, itemID, uuid.New(), 0.9, domain.NormalizationMethodEmbedding, floatPtr(0.99))
		require.NoError(t, err)

		winner, err := svc.AutoSelect(ctx, itemID.String())
		require.NoError(t, err)
		assert.Equal(t, rule.NormalizedProductID, winner.NormalizedProductID)
		assert.True(t, winner.IsSelected)
		assert.Len(t, repo.selectedFor(itemID.String()), 1)
	})

	t.Run("falls through to embedding when rule confidence is below floor", func(t *testing.T) {
		itemID := uuid.New()
		repo := &fakeLinkingRepository{}
		svc := NewLinkingService(repo)

		_, err := svc.ProposeLink(ctx, itemID, uuid.New(), 0.5, domain.NormalizationMethodRuleBased, nil)
		require.NoError(t, err)
		embed, err := svc.ProposeLink(ctx, itemID, uuid.New(), 0.8, domain.NormalizationMethodEmbedding, floatPtr(0.91))
		require.NoError(t, err)

		winner, err := svc.AutoSelect(ctx, itemID.String())
		require.NoError(t, err)
		assert.Equal(t, embed.NormalizedProductID, winner.NormalizedProductID)
	})

	t.Run("proposals below both floors still yield exactly one selection", func(t *testing.T) {
		itemID := uuid.New()
		repo := &fakeLinkingRepository{}
		svc := NewLinkingService(repo)

		_, err := svc.ProposeLink(ctx, itemID, uuid.New(), 0.3, domain.NormalizationMethodRuleBased, nil)
		require.NoError(t, err)
		best, err := svc.ProposeLink(ctx, itemID, uuid.New(), 0.55, domain.NormalizationMethodEmbedding, floatPtr(0.6))
		require.NoError(t, err)

		winner, err := svc.AutoSelect(ctx, itemID.String())
		require.NoError(t, err)
		assert.Equal(t, best.NormalizedProductID, winner.NormalizedProductID)
		assert.Len(t, repo.selectedFor(itemID.String()), 1)
	})

	t.Run("ties go to the earliest proposal", func(t *testing.T) {
		itemID := uuid.New()
		repo := &fakeLinkingRepository{}
		svc := NewLinkingService(repo)

		first, err := svc.ProposeLink(ctx, itemID, uuid.New(), 0.7, domain.NormalizationMethodRuleBased, nil)
		require.NoError(t, err)
		_, err = svc.ProposeLink(ctx, itemID, uuid.New(), 0.7, domain.NormalizationMethodRuleBased, nil)
		require.NoError(t, err)

		winner, err := svc.AutoSelect(ctx, itemID.String())
		require.NoError(t, err)
		assert.Equal(t, first.NormalizedProductID, winner.NormalizedProductID)
	})

	t.Run("no proposals is an error", func(t *testing.T) {
		svc := NewLinkingService(&fakeLinkingRepository{})
		_, err := svc.AutoSelect(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrProposalNotFound)
	})
}
