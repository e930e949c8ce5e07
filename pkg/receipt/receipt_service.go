package receipt

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"PriceLens-Backend/internal/utils"
	"PriceLens-Backend/internal/utils/mailing"
	"PriceLens-Backend/internal/utils/storage"
	"PriceLens-Backend/pkg/catalog"
	"PriceLens-Backend/pkg/classifier"
	"PriceLens-Backend/pkg/embedding"
	"PriceLens-Backend/pkg/linking"
	"PriceLens-Backend/pkg/registry"
	"PriceLens-Backend/pkg/store"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// normalizeWorkers bounds the per-receipt line fan-out.
	normalizeWorkers = 4
	// embedTimeout caps one round trip to the embedding provider; a timeout
	// means "no similarity evidence", not a failed receipt.
	embedTimeout = 5 * time.Second
	// catalogLinkTimeout bounds the background catalog-linking pass.
	catalogLinkTimeout = 30 * time.Second

	// barcodeMinDigits separates short PLU codes from scannable barcodes.
	barcodeMinDigits = 8

	itemStatusNormalized = "normalized"
	itemStatusSkipped    = "skipped"
	itemStatusFailed     = "failed"
)

type (
	ReceiptService interface {
		UploadReceipt(ctx context.Context, req domain.UploadReceiptRequest, userID string) (domain.UploadReceiptResponse, error)
		IngestOcrResult(ctx context.Context, receiptID string, req domain.IngestOcrRequest, userID string) (domain.IngestOcrResponse, error)
		ConfirmStore(ctx context.Context, receiptID, storeID, userID string) error
		NormalizeAndLink(ctx context.Context, receiptID, userID string) (domain.NormalizeReceiptResponse, error)
		GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]domain.ReceiptResponse, int64, error)
		GetReceiptByID(ctx context.Context, receiptID, userID string) (domain.ReceiptResponse, error)
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		storeRepository   store.StoreRepository
		storeService      store.StoreService
		lineClassifier    *classifier.LineClassifier
		embedder          embedding.Embedder
		registryService   registry.RegistryService
		linkingService    linking.LinkingService
		catalogService    catalog.CatalogService
		s3                storage.AwsS3
	}
)

func NewReceiptService(
	receiptRepository ReceiptRepository,
	storeRepository store.StoreRepository,
	storeService store.StoreService,
	lineClassifier *classifier.LineClassifier,
	embedder embedding.Embedder,
	registryService registry.RegistryService,
	linkingService linking.LinkingService,
	catalogService catalog.CatalogService,
	s3 storage.AwsS3,
) ReceiptService {
	return &receiptService{
		receiptRepository: receiptRepository,
		storeRepository:   storeRepository,
		storeService:      storeService,
		lineClassifier:    lineClassifier,
		embedder:          embedder,
		registryService:   registryService,
		linkingService:    linkingService,
		catalogService:    catalogService,
		s3:                s3,
	}
}

func (s *receiptService) UploadReceipt(ctx context.Context, req domain.UploadReceiptRequest, userID string) (domain.UploadReceiptResponse, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.UploadReceiptResponse{}, domain.ErrParseUUID
	}

	receipt := &entities.Receipt{
		ID:     uuid.New(),
		UserID: userUUID,
		Status: domain.ReceiptStatusPending,
	}

	fileName := fmt.Sprintf("receipt-%s", receipt.ID.String())
	objectKey, err := s.s3.UploadFile(fileName, req.ReceiptImage, "receipts", storage.AllowImage...)
	if err != nil {
		return domain.UploadReceiptResponse{}, domain.ErrInvalidImageFormat
	}
	receipt.ImageURL = s.s3.GetPublicLinkKey(objectKey)

	if err := s.receiptRepository.CreateReceipt(ctx, receipt); err != nil {
		return domain.UploadReceiptResponse{}, err
	}

	return domain.UploadReceiptResponse{
		ReceiptID: receipt.ID.String(),
		ImageURL:  receipt.ImageURL,
		Status:    receipt.Status,
	}, nil
}

// IngestOcrResult stores the opaque OCR snapshot, classifies its lines into
// receipt items, and attempts store resolution. When no store clears the
// floor the receipt parks in AwaitingStore and the review inbox is notified.
func (s *receiptService) IngestOcrResult(ctx context.Context, receiptID string, req domain.IngestOcrRequest, userID string) (domain.IngestOcrResponse, error) {
	receipt, err := s.getOwnedReceipt(ctx, receiptID, userID)
	if err != nil {
		return domain.IngestOcrResponse{}, err
	}
	if receipt.Status == domain.ReceiptStatusProcessed {
		return domain.IngestOcrResponse{}, domain.ErrReceiptAlreadyProcessed
	}
	// A stored payload means a snapshot already arrived; a retried OCR
	// callback must not create the line items twice.
	if len(receipt.RawPayload) > 0 {
		return domain.IngestOcrResponse{}, domain.ErrOcrAlreadyIngested
	}

	items := s.classifyLines(receipt.ID, req.Lines)
	if len(items) == 0 {
		return domain.IngestOcrResponse{}, domain.ErrEmptyOcrPayload
	}

	rawPayload, err := json.Marshal(req)
	if err != nil {
		return domain.IngestOcrResponse{}, err
	}
	receipt.RawPayload = rawPayload
	receipt.OcrEngine = req.Engine
	receipt.OcrConfidence = req.Confidence
	receipt.Subtotal = req.Subtotal
	receipt.Tax = req.Tax
	receipt.Total = req.Total
	if req.ReceiptDate != "" {
		if parsed, err := time.Parse("2006-01-02", req.ReceiptDate); err == nil {
			receipt.ReceiptDate = &parsed
		}
	}

	if err := s.receiptRepository.CreateReceiptItems(ctx, items); err != nil {
		return domain.IngestOcrResponse{}, err
	}

	resolution, err := s.storeService.ResolveStore(ctx, domain.ResolveStoreRequest{
		MerchantName: req.MerchantName,
		AddressText:  req.AddressText,
	})
	if err != nil {
		return domain.IngestOcrResponse{}, err
	}

	if resolution.Found {
		receipt.Status = domain.ReceiptStatusPending
		storeUUID, err := uuid.Parse(resolution.Store.ID)
		if err != nil {
			return domain.IngestOcrResponse{}, domain.ErrParseUUID
		}
		receipt.StoreID = &storeUUID
	} else {
		receipt.Status = domain.ReceiptStatusAwaitingStore
		s.notifyStoreUnresolved(receipt.ID.String(), req.MerchantName, resolution.Extracted)
	}

	if err := s.receiptRepository.UpdateReceipt(ctx, receipt); err != nil {
		return domain.IngestOcrResponse{}, err
	}

	return domain.IngestOcrResponse{
		ReceiptID:    receipt.ID.String(),
		ItemsCreated: len(items),
		Status:       receipt.Status,
		Store:        resolution,
	}, nil
}

func (s *receiptService) classifyLines(receiptID uuid.UUID, lines []domain.OcrLine) []*entities.ReceiptItem {
	items := make([]*entities.ReceiptItem, 0, len(lines))
	for _, line := range lines {
		classified, ok := s.lineClassifier.ClassifyLine(line.Text, line.LineNumber, line.Confidence)
		if !ok {
			continue
		}
		items = append(items, &entities.ReceiptItem{
			ID:               uuid.New(),
			ReceiptID:        receiptID,
			LineNumber:       classified.LineNumber,
			RawName:          classified.RawName,
			ItemCode:         classified.ItemCode,
			Amount:           classified.Amount,
			OcrConfidence:    classified.Confidence,
			IsDiscountLine:   classified.Kind == classifier.KindDiscount,
			IsAdjustmentLine: classified.Kind == classifier.KindAdjustment,
		})
	}
	return items
}

// ConfirmStore attaches an explicitly chosen store to a parked receipt.
// Confirming the same store twice is a no-op.
func (s *receiptService) ConfirmStore(ctx context.Context, receiptID, storeID, userID string) error {
	receipt, err := s.getOwnedReceipt(ctx, receiptID, userID)
	if err != nil {
		return err
	}

	if receipt.StoreID != nil && receipt.StoreID.String() == storeID {
		return nil
	}

	if _, err := s.storeRepository.GetStoreByID(ctx, storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrStoreNotFound
		}
		return err
	}

	status := receipt.Status
	if status == domain.ReceiptStatusAwaitingStore {
		status = domain.ReceiptStatusPending
	}
	return s.receiptRepository.AttachStore(ctx, receiptID, storeID, status)
}

// NormalizeAndLink runs the per-line pipeline: classify output is already in
// the items, so each line gets embedded, resolved against the registry,
// proposed to the linking engine, and auto-selected. Lines are independent;
// one failure never blocks the rest.
func (s *receiptService) NormalizeAndLink(ctx context.Context, receiptID, userID string) (domain.NormalizeReceiptResponse, error) {
	receipt, err := s.getOwnedReceipt(ctx, receiptID, userID)
	if err != nil {
		return domain.NormalizeReceiptResponse{}, err
	}
	if receipt.StoreID == nil {
		return domain.NormalizeReceiptResponse{}, domain.ErrReceiptStoreUnresolved
	}

	merchantStore, err := s.storeRepository.GetStoreByID(ctx, receipt.StoreID.String())
	if err != nil {
		return domain.NormalizeReceiptResponse{}, err
	}
	merchant := merchantStore.Name

	items, err := s.receiptRepository.GetReceiptItems(ctx, receiptID)
	if err != nil {
		return domain.NormalizeReceiptResponse{}, err
	}

	response := domain.NormalizeReceiptResponse{
		ReceiptID: receiptID,
		Items:     make([]domain.ItemStatus, 0, len(items)),
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		degraded bool
	)
	sem := make(chan struct{}, normalizeWorkers)
	linkTargets := make(map[string]struct{})

	// Skipped lines are collected apart from the worker results and merged
	// after the wait, so workers are the only concurrent writers of the
	// response slice.
	skipped := make([]domain.ItemStatus, 0, len(items))

	for _, item := range items {
		if item.IsDiscountLine || item.IsAdjustmentLine {
			skipped = append(skipped, domain.ItemStatus{
				ReceiptItemID: item.ID.String(),
				LineNumber:    item.LineNumber,
				Status:        itemStatusSkipped,
			})
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(item *entities.ReceiptItem) {
			defer wg.Done()
			defer func() { <-sem }()

			status, productID, wasDegraded := s.normalizeItem(ctx, merchant, item)

			mu.Lock()
			response.Items = append(response.Items, status)
			response.Errors = append(response.Errors, status.Errors...)
			if wasDegraded {
				degraded = true
			}
			if productID != "" {
				linkTargets[productID] = struct{}{}
			}
			mu.Unlock()
		}(item)
	}
	wg.Wait()
	response.Items = append(response.Items, skipped...)

	sort.Slice(response.Items, func(i, j int) bool {
		return response.Items[i].LineNumber < response.Items[j].LineNumber
	})
	response.ItemsProcessed = len(response.Items)
	response.DegradedMode = degraded

	// A receipt where nothing normalized and at least one line failed is a
	// failed run; partial success still counts as processed.
	normalized, failed := 0, 0
	for _, item := range response.Items {
		switch item.Status {
		case itemStatusNormalized:
			normalized++
		case itemStatusFailed:
			failed++
		}
	}
	finalStatus := domain.ReceiptStatusProcessed
	if failed > 0 && normalized == 0 {
		finalStatus = domain.ReceiptStatusFailed
	}

	if err := s.receiptRepository.UpdateStatus(ctx, receiptID, finalStatus); err != nil {
		return domain.NormalizeReceiptResponse{}, err
	}

	s.linkToCatalogAsync(linkTargets)
	return response, nil
}

// normalizeItem handles one receipt line end to end and reports the outcome.
func (s *receiptService) normalizeItem(ctx context.Context, merchant string, item *entities.ReceiptItem) (domain.ItemStatus, string, bool) {
	status := domain.ItemStatus{
		ReceiptItemID: item.ID.String(),
		LineNumber:    item.LineNumber,
		Status:        itemStatusNormalized,
	}

	normalizedName := s.lineClassifier.NormalizeName(item.RawName)

	var vector []float32
	degraded := false
	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	vec, err := s.embedder.Embed(embedCtx, normalizedName)
	cancel()
	switch {
	case err == nil:
		vector = vec
	case errors.Is(err, embedding.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded):
		degraded = true
		log.Printf("embedding degraded for item %s: %v", item.ID, err)
	default:
		degraded = true
		log.Printf("embedding failed for item %s: %v", item.ID, err)
	}

	attrs := registry.Attributes{
		NormalizedName: normalizedName,
		Confidence:     item.OcrConfidence,
	}
	if len(item.ItemCode) >= barcodeMinDigits {
		attrs.Barcode = item.ItemCode
	}

	resolution, err := s.registryService.ResolveOrCreate(ctx, merchant, item.RawName, vector, attrs)
	if err != nil {
		status.Status = itemStatusFailed
		status.Errors = append(status.Errors, fmt.Sprintf("line %d: %v", item.LineNumber, err))
		return status, "", degraded
	}

	method := domain.NormalizationMethodRuleBased
	var similarityScore *float64
	if resolution.Reused && vector != nil {
		method = domain.NormalizationMethodEmbedding
		sim := resolution.Similarity
		similarityScore = &sim
	}

	if _, err := s.linkingService.ProposeLink(ctx, item.ID, resolution.Product.ID, item.OcrConfidence, method, similarityScore); err != nil {
		status.Status = itemStatusFailed
		status.Errors = append(status.Errors, fmt.Sprintf("line %d: %v", item.LineNumber, err))
		return status, "", degraded
	}

	selected, err := s.linkingService.AutoSelect(ctx, item.ID.String())
	if err != nil {
		status.Status = itemStatusFailed
		status.Errors = append(status.Errors, fmt.Sprintf("line %d: %v", item.LineNumber, err))
		return status, "", degraded
	}

	product := resolution.Product
	selectedResponse := domain.NormalizedProductResponse{
		ID:              selected.NormalizedProductID.String(),
		Merchant:        product.Merchant,
		RawName:         product.RawName,
		NormalizedName:  product.NormalizedName,
		Brand:           product.Brand,
		Category:        product.Category,
		ConfidenceScore: product.ConfidenceScore,
		MatchCount:      product.MatchCount,
		LastMatchedAt:   product.LastMatchedAt,
	}
	if selected.SimilarityScore != nil {
		selectedResponse.Similarity = *selected.SimilarityScore
	}
	status.Selected = &selectedResponse

	return status, product.ID.String(), degraded
}

// linkToCatalogAsync kicks the product linker in the background; normalize
// responses never wait on catalog lookups.
func (s *receiptService) linkToCatalogAsync(targets map[string]struct{}) {
	for id := range targets {
		go func(normalizedProductID string) {
			ctx, cancel := context.WithTimeout(context.Background(), catalogLinkTimeout)
			defer cancel()
			if _, err := s.catalogService.LinkToCatalog(ctx, normalizedProductID); err != nil &&
				!errors.Is(err, domain.ErrNotEligibleForLinking) {
				log.Printf("background catalog linking failed for %s: %v", normalizedProductID, err)
			}
		}(id)
	}
}

func (s *receiptService) GetReceipts(ctx context.Context, userID string, status string, page, limit int) ([]domain.ReceiptResponse, int64, error) {
	receipts, count, err := s.receiptRepository.GetReceipts(ctx, userID, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	var response []domain.ReceiptResponse
	for _, receipt := range receipts {
		response = append(response, toReceiptResponse(receipt, len(receipt.Items)))
	}
	return response, count, nil
}

func (s *receiptService) GetReceiptByID(ctx context.Context, receiptID, userID string) (domain.ReceiptResponse, error) {
	receipt, err := s.getOwnedReceipt(ctx, receiptID, userID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	count, err := s.receiptRepository.CountReceiptItems(ctx, receiptID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}
	return toReceiptResponse(receipt, int(count)), nil
}

func (s *receiptService) getOwnedReceipt(ctx context.Context, receiptID, userID string) (*entities.Receipt, error) {
	receipt, err := s.receiptRepository.GetReceiptByID(ctx, receiptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}
	if receipt.UserID.String() != userID {
		return nil, domain.ErrUnauthorizedAccess
	}
	return receipt, nil
}

func (s *receiptService) notifyStoreUnresolved(receiptID, merchantName string, extracted domain.ExtractedAddress) {
	inbox := utils.GetConfig("REVIEW_INBOX_EMAIL")
	if inbox == "" {
		return
	}
	body := fmt.Sprintf(
		"<p>Receipt <b>%s</b> could not be matched to a known store.</p><p>Merchant: %s<br>Extracted address: %s</p>",
		receiptID, merchantName, extracted.FullAddress,
	)
	if err := mailing.SendMail(inbox, "Receipt needs store confirmation", body); err != nil {
		log.Printf("failed to send store confirmation mail for receipt %s: %v", receiptID, err)
	}
}

func toReceiptResponse(receipt *entities.Receipt, itemCount int) domain.ReceiptResponse {
	response := domain.ReceiptResponse{
		ID:            receipt.ID.String(),
		ImageURL:      receipt.ImageURL,
		Status:        receipt.Status,
		OcrEngine:     receipt.OcrEngine,
		OcrConfidence: receipt.OcrConfidence,
		Subtotal:      receipt.Subtotal,
		Tax:           receipt.Tax,
		Total:         receipt.Total,
		ReceiptDate:   receipt.ReceiptDate,
		ItemCount:     itemCount,
		CreatedAt:     receipt.CreatedAt,
	}
	if receipt.StoreID != nil {
		response.StoreID = receipt.StoreID.String()
	}
	if receipt.Store != nil {
		response.StoreName = receipt.Store.Name
	}
	return response
}
