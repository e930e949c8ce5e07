package entities

import (
	"github.com/google/uuid"
)

type Store struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name          string    `gorm:"index:idx_stores_postal_name" json:"name"`
	StreetNumber  string    `json:"street_number"`
	Road          string    `json:"road"`
	StreetAddress string    `json:"street_address"`
	FullAddress   string    `gorm:"uniqueIndex" json:"full_address"`
	City          string    `json:"city"`
	Province      string    `json:"province"`
	PostalCode    string    `gorm:"index:idx_stores_postal_name" json:"postal_code"`
	CountryRegion string    `json:"country_region"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	PlaceRef      string    `json:"place_ref,omitempty"`

	Receipts []*Receipt `gorm:"foreignKey:StoreID"`
	Timestamp
}
