package store

import (
	"PriceLens-Backend/domain"
	"PriceLens-Backend/entities"
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var (
	// Canadian "V3B 5R9" style and US five-digit postal codes.
	postalCodePattern = regexp.MustCompile(`(?i)\b([A-Z]\d[A-Z]\s?\d[A-Z]\d|\d{5}(?:-\d{4})?)\b`)
	provincePattern   = regexp.MustCompile(`\b(AB|BC|MB|NB|NL|NS|NT|NU|ON|PE|QC|SK|YT)\b`)
	streetPattern     = regexp.MustCompile(`^(\d+)\s+(.+)$`)
)

type (
	StoreService interface {
		ResolveStore(ctx context.Context, req domain.ResolveStoreRequest) (domain.ResolveStoreResponse, error)
	}

	storeService struct {
		storeRepository StoreRepository
	}
)

func NewStoreService(storeRepository StoreRepository) StoreService {
	return &storeService{storeRepository: storeRepository}
}

// ResolveStore walks the match ladder from most to least specific; the first
// candidate that clears the confidence floor wins. A miss is a structured
// not-found result, never an error.
func (s *storeService) ResolveStore(ctx context.Context, req domain.ResolveStoreRequest) (domain.ResolveStoreResponse, error) {
	extracted := extractAddress(req.AddressText)

	if extracted.FullAddress != "" {
		match, err := s.storeRepository.FindByFullAddress(ctx, extracted.FullAddress)
		if err == nil {
			return resolved(match, domain.ConfidenceExactAddress, domain.MatchMethodExactAddress, extracted), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ResolveStoreResponse{}, err
		}
	}

	if extracted.PostalCode != "" && req.MerchantName != "" {
		compact := strings.ReplaceAll(strings.ToUpper(extracted.PostalCode), " ", "")
		match, err := s.storeRepository.FindByPostalCodeAndName(ctx, compact, normalizeMerchantName(req.MerchantName))
		if err == nil {
			return resolved(match, domain.ConfidencePostalCodeName, domain.MatchMethodPostalCodeName, extracted), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ResolveStoreResponse{}, err
		}
	}

	if req.MerchantName != "" {
		match, sim, err := s.storeRepository.FindFuzzyByName(ctx, normalizeMerchantName(req.MerchantName), extracted.City, extracted.Province)
		if err == nil {
			confidence := sim
			if confidence >= domain.StoreConfidenceFloor {
				return resolved(match, confidence, domain.MatchMethodFuzzyNameLocation, extracted), nil
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ResolveStoreResponse{}, err
		}
	}

	return domain.ResolveStoreResponse{
		Found:                    false,
		RequiresUserConfirmation: true,
		Extracted:                extracted,
	}, nil
}

func resolved(store *entities.Store, confidence float64, method domain.MatchMethod, extracted domain.ExtractedAddress) domain.ResolveStoreResponse {
	return domain.ResolveStoreResponse{
		Found:      true,
		Confidence: confidence,
		Method:     method,
		Extracted:  extracted,
		Store: &domain.StoreResponse{
			ID:          store.ID.String(),
			Name:        store.Name,
			FullAddress: store.FullAddress,
			City:        store.City,
			Province:    store.Province,
			PostalCode:  store.PostalCode,
			Latitude:    store.Latitude,
			Longitude:   store.Longitude,
		},
	}
}

// extractAddress pulls best-effort fragments out of noisy OCR address text.
// Expected shapes are "1234 Main St, Vancouver, BC V3B 5R9" with arbitrary
// pieces missing or mangled.
func extractAddress(addressText string) domain.ExtractedAddress {
	extracted := domain.ExtractedAddress{}
	text := strings.TrimSpace(addressText)
	if text == "" {
		return extracted
	}
	extracted.FullAddress = text

	if m := postalCodePattern.FindString(text); m != "" {
		extracted.PostalCode = strings.ToUpper(m)
	}
	if m := provincePattern.FindString(strings.ToUpper(text)); m != "" {
		extracted.Province = m
	}

	parts := strings.Split(text, ",")
	if len(parts) > 0 {
		street := strings.TrimSpace(parts[0])
		if m := streetPattern.FindStringSubmatch(street); m != nil {
			extracted.StreetNumber = m[1]
			extracted.Road = m[2]
		}
	}
	if len(parts) >= 2 {
		// The city usually sits right after the street segment; strip any
		// trailing province/postal noise from it.
		city := strings.TrimSpace(parts[1])
		city = postalCodePattern.ReplaceAllString(city, "")
		city = provincePattern.ReplaceAllString(strings.TrimSpace(city), "")
		extracted.City = strings.TrimSpace(city)
	}

	return extracted
}

func normalizeMerchantName(name string) string {
	cleaned := strings.TrimSpace(name)
	cleaned = strings.TrimSuffix(cleaned, "#")
	for _, suffix := range []string{" wholesale", " inc", " inc.", " ltd", " ltd.", " llc"} {
		if strings.HasSuffix(strings.ToLower(cleaned), suffix) {
			cleaned = cleaned[:len(cleaned)-len(suffix)]
		}
	}
	return strings.TrimSpace(cleaned)
}
