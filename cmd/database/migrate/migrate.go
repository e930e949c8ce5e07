package migration

import (
	"PriceLens-Backend/entities"
	"fmt"
	"log"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// uuid-ossp for primary keys, pg_trgm for the similarity() function the
	// store resolver and catalog prefilter rely on.
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"pg_trgm\";")

	if err := db.AutoMigrate(&entities.Store{}); err != nil {
		log.Fatalf("Error migrating store database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Product{}); err != nil {
		log.Fatalf("Error migrating product database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Receipt{}); err != nil {
		log.Fatalf("Error migrating receipt database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.ReceiptItem{}); err != nil {
		log.Fatalf("Error migrating receipt item database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.NormalizedProduct{}); err != nil {
		log.Fatalf("Error migrating normalized product database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.ReceiptItemNormalization{}); err != nil {
		log.Fatalf("Error migrating receipt item normalization database: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
