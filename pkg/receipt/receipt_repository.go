package receipt

import (
	"PriceLens-Backend/entities"
	"context"

	"gorm.io/gorm"
)

type (
	ReceiptRepository interface {
		CreateReceipt(ctx context.Context, receipt *entities.Receipt) error
		GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error)
		UpdateReceipt(ctx context.Context, receipt *entities.Receipt) error
		AttachStore(ctx context.Context, receiptID, storeID, status string) error
		UpdateStatus(ctx context.Context, receiptID, status string) error
		GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]*entities.Receipt, int64, error)

		CreateReceiptItems(ctx context.Context, items []*entities.ReceiptItem) error
		GetReceiptItems(ctx context.Context, receiptID string) ([]*entities.ReceiptItem, error)
		CountReceiptItems(ctx context.Context, receiptID string) (int64, error)
	}

	receiptRepository struct {
		db *gorm.DB
	}
)

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) CreateReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Create(receipt).Error
}

func (r *receiptRepository) GetReceiptByID(ctx context.Context, id string) (*entities.Receipt, error) {
	var receipt entities.Receipt
	if err := r.db.WithContext(ctx).Preload("Store").Where("id = ?", id).First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) UpdateReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Save(receipt).Error
}

func (r *receiptRepository) AttachStore(ctx context.Context, receiptID, storeID, status string) error {
	return r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ?", receiptID).
		Updates(map[string]interface{}{"store_id": storeID, "status": status}).Error
}

func (r *receiptRepository) UpdateStatus(ctx context.Context, receiptID, status string) error {
	return r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Where("id = ?", receiptID).
		Update("status", status).Error
}

func (r *receiptRepository) GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]*entities.Receipt, int64, error) {
	var receipts []*entities.Receipt
	var count int64

	offset := (page - 1) * limit

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "all" && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Model(&entities.Receipt{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Store").Preload("Items").
		Offset(offset).Limit(limit).Order("created_at desc").
		Find(&receipts).Error; err != nil {
		return nil, 0, err
	}

	return receipts, count, nil
}

func (r *receiptRepository) CreateReceiptItems(ctx context.Context, items []*entities.ReceiptItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(items).Error
}

func (r *receiptRepository) GetReceiptItems(ctx context.Context, receiptID string) ([]*entities.ReceiptItem, error) {
	var items []*entities.ReceiptItem
	if err := r.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("line_number asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *receiptRepository) CountReceiptItems(ctx context.Context, receiptID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.ReceiptItem{}).
		Where("receipt_id = ?", receiptID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
