package linking

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"context"
	"errors"

	"gorm.io/gorm"
)

type (
	LinkingRepository interface {
		Create(ctx context.Context, proposal *entities.ReceiptItemNormalization) error
		GetProposal(ctx context.Context, receiptItemID, normalizedProductID string) (*entities.ReceiptItemNormalization, error)
		UpdateScores(ctx context.Context, id string, confidence float64, similarity *float64) error
		ListByReceiptItem(ctx context.Context, receiptItemID string) ([]*entities.ReceiptItemNormalization, error)
		SelectExclusive(ctx context.Context, receiptItemID, normalizedProductID string) error
	}

	linkingRepository struct {
		db *gorm.DB
	}
)

func NewLinkingRepository(db *gorm.DB) LinkingRepository {
	return &linkingRepository{db: db}
}

func (r *linkingRepository) Create(ctx context.Context, proposal *entities.ReceiptItemNormalization) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *linkingRepository) GetProposal(ctx context.Context, receiptItemID, normalizedProductID string) (*entities.ReceiptItemNormalization, error) {
	var proposal entities.ReceiptItemNormalization
	if err := r.db.WithContext(ctx).
		Where("receipt_item_id = ? AND normalized_product_id = ?", receiptItemID, normalizedProductID).
		First(&proposal).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *linkingRepository) UpdateScores(ctx context.Context, id string, confidence float64, similarity *float64) error {
	return r.db.WithContext(ctx).Model(&entities.ReceiptItemNormalization{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"confidence_score": confidence,
			"similarity_score": similarity,
		}).Error
}

// ListByReceiptItem returns proposals in stable proposal order so tie-breaks
// are deterministic.
func (r *linkingRepository) ListByReceiptItem(ctx context.Context, receiptItemID string) ([]*entities.ReceiptItemNormalization, error) {
	var proposals []*entities.ReceiptItemNormalization
	if err := r.db.WithContext(ctx).
		Where("receipt_item_id = ?", receiptItemID).
		Order("created_at asc, id asc").
		Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

// SelectExclusive flips selection to the given pair inside one transaction,
// so no observer ever sees zero or two selected rows for the item.
func (r *linkingRepository) SelectExclusive(ctx context.Context, receiptItemID, normalizedProductID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var proposal entities.ReceiptItemNormalization
		if err := tx.
			Where("receipt_item_id = ? AND normalized_product_id = ?", receiptItemID, normalizedProductID).
			First(&proposal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrProposalNotFound
			}
			return err
		}

		if err := tx.Model(&entities.ReceiptItemNormalization{}).
			Where("receipt_item_id = ? AND id <> ?", receiptItemID, proposal.ID).
			Update("is_selected", false).Error; err != nil {
			return err
		}

		return tx.Model(&entities.ReceiptItemNormalization{}).
			Where("id = ?", proposal.ID).
			Update("is_selected", true).Error
	})
}
