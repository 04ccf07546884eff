package models

import (
	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Client{}, &Provider{},
		&Product{},
		&Quotation{}, &QuotationDetail{},
		&Order{}, &OrderDetail{},
		&Consultation{}, &ConsultationDetail{},
	)
}
