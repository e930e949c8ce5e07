package domain

import (
	"errors"
)

// MatchMethod is the closed set of ways a store resolution can succeed.
type MatchMethod string

const (
	MatchMethodExactAddress      MatchMethod = "exact_address"
	MatchMethodPostalCodeName    MatchMethod = "postal_code_name"
	MatchMethodFuzzyNameLocation MatchMethod = "fuzzy_name_location"
)

const (
	// StoreConfidenceFloor is the minimum confidence a candidate must clear
	// before the resolver reports it instead of store_not_found.
	StoreConfidenceFloor = 0.5

	ConfidenceExactAddress   = 1.0
	ConfidencePostalCodeName = 0.9
)

var (
	MessageSuccessResolveStore = "store resolved successfully"
	MessageSuccessConfirmStore = "store confirmed successfully"
	MessageFailedResolveStore  = "failed to resolve store"
	MessageFailedConfirmStore  = "failed to confirm store"

	ErrStoreNotFound   = errors.New("store not found")
	ErrReceiptNotFound = errors.New("receipt not found")
)

type (
	ResolveStoreRequest struct {
		MerchantName string `json:"merchant_name" validate:"required"`
		AddressText  string `json:"address_text" validate:"omitempty"`
	}

	// ExtractedAddress carries the address fragments pulled out of the OCR
	// text, returned as-is when no store clears the confidence floor so the
	// user can confirm manually.
	ExtractedAddress struct {
		StreetNumber string `json:"street_number,omitempty"`
		Road         string `json:"road,omitempty"`
		FullAddress  string `json:"full_address,omitempty"`
		City         string `json:"city,omitempty"`
		Province     string `json:"province,omitempty"`
		PostalCode   string `json:"postal_code,omitempty"`
	}

	StoreResponse struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		FullAddress string  `json:"full_address"`
		City        string  `json:"city,omitempty"`
		Province    string  `json:"province,omitempty"`
		PostalCode  string  `json:"postal_code,omitempty"`
		Latitude    float64 `json:"latitude,omitempty"`
		Longitude   float64 `json:"longitude,omitempty"`
	}

	ResolveStoreResponse struct {
		Found                    bool             `json:"found"`
		Store                    *StoreResponse   `json:"store,omitempty"`
		Confidence               float64          `json:"confidence"`
		Method                   MatchMethod      `json:"method,omitempty"`
		RequiresUserConfirmation bool             `json:"requires_user_confirmation"`
		Extracted                ExtractedAddress `json:"extracted,omitempty"`
	}

	ConfirmStoreRequest struct {
		StoreID string `json:"store_id" validate:"required,uuid"`
	}
)
