package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

const (
	ReceiptStatusPending       = "Pending"
	ReceiptStatusAwaitingStore = "AwaitingStore"
	ReceiptStatusProcessed     = "Processed"
	ReceiptStatusFailed        = "Failed"
)

var (
	MessageSuccessUploadReceipt = "receipt uploaded successfully"
	MessageSuccessIngestOcr     = "ocr result ingested successfully"
	MessageSuccessNormalize     = "receipt normalized successfully"
	MessageSuccessGetReceipts   = "receipts retrieved successfully"
	MessageSuccessGetReceipt    = "receipt retrieved successfully"
	MessageFailedUploadReceipt  = "failed to upload receipt"
	MessageFailedIngestOcr      = "failed to ingest ocr result"
	MessageFailedNormalize      = "failed to normalize receipt"
	MessageFailedGetReceipts    = "failed to retrieve receipts"
	MessageFailedGetReceipt     = "failed to retrieve receipt"

	ErrReceiptAlreadyProcessed = errors.New("receipt already processed")
	ErrOcrAlreadyIngested      = errors.New("ocr result already ingested for this receipt")
	ErrReceiptStoreUnresolved  = errors.New("receipt store not resolved yet")
	ErrEmptyOcrPayload         = errors.New("ocr payload has no text lines")
	ErrInvalidImageFormat      = errors.New("invalid image format")
	ErrUnauthorizedAccess      = errors.New("unauthorized access to receipt")
)

type (
	UploadReceiptRequest struct {
		ReceiptImage *multipart.FileHeader `json:"receipt_image" form:"receipt_image" validate:"required"`
	}

	UploadReceiptResponse struct {
		ReceiptID string `json:"receipt_id"`
		ImageURL  string `json:"image_url"`
		Status    string `json:"status"`
	}

	// OcrLine is one raw text line from the OCR collaborator, in reading order.
	OcrLine struct {
		LineNumber int     `json:"line_number" validate:"min=0"`
		Text       string  `json:"text" validate:"required"`
		Confidence float64 `json:"confidence" validate:"min=0,max=1"`
	}

	// IngestOcrRequest is the opaque snapshot posted back by the OCR service.
	IngestOcrRequest struct {
		Engine       string    `json:"engine" validate:"required"`
		Confidence   float64   `json:"confidence" validate:"min=0,max=1"`
		MerchantName string    `json:"merchant_name" validate:"required"`
		AddressText  string    `json:"address_text"`
		Lines        []OcrLine `json:"lines" validate:"required,min=1,dive"`
		Subtotal     float64   `json:"subtotal"`
		Tax          float64   `json:"tax"`
		Total        float64   `json:"total"`
		ReceiptDate  string    `json:"receipt_date" validate:"omitempty"`
	}

	IngestOcrResponse struct {
		ReceiptID    string               `json:"receipt_id"`
		ItemsCreated int                  `json:"items_created"`
		Status       string               `json:"status"`
		Store        ResolveStoreResponse `json:"store"`
	}

	// ItemStatus enumerates per-line outcomes of normalize-and-link.
	ItemStatus struct {
		ReceiptItemID string                     `json:"receipt_item_id"`
		LineNumber    int                        `json:"line_number"`
		Status        string                     `json:"status"` // "normalized", "skipped", "failed"
		Selected      *NormalizedProductResponse `json:"selected,omitempty"`
		Errors        []string                   `json:"errors,omitempty"`
	}

	NormalizeReceiptResponse struct {
		ReceiptID      string       `json:"receipt_id"`
		ItemsProcessed int          `json:"items_processed"`
		Items          []ItemStatus `json:"items"`
		Errors         []string     `json:"errors,omitempty"`
		DegradedMode   bool         `json:"degraded_mode"`
	}

	ReceiptResponse struct {
		ID            string     `json:"id"`
		StoreID       string     `json:"store_id,omitempty"`
		StoreName     string     `json:"store_name,omitempty"`
		ImageURL      string     `json:"image_url,omitempty"`
		Status        string     `json:"status"`
		OcrEngine     string     `json:"ocr_engine,omitempty"`
		OcrConfidence float64    `json:"ocr_confidence"`
		Subtotal      float64    `json:"subtotal"`
		Tax           float64    `json:"tax"`
		Total         float64    `json:"total"`
		ReceiptDate   *time.Time `json:"receipt_date,omitempty"`
		ItemCount     int        `json:"item_count"`
		CreatedAt     time.Time  `json:"created_at"`
	}
)
