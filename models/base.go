package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/quotes_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func init() {
	// money goes out as JSON numbers (23.6, not "23.6")
	decimal.MarshalJSONWithoutQuotes = true
}

// GormStore is the relational store behind the workflows and the catalog routes.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// count rows of T whose dateColumn falls in [from, to)
func countBetween[T any](ctx context.Context, db *gorm.DB, dateColumn string, from time.Time, to time.Time) (int64, error) {
	return utils.ResourceCountWhere[T](ctx, db, dateColumn+" >= ? AND "+dateColumn+" < ?", from, to)
}

// partial update of T by id; fields are column names
func updateFields[T any](ctx context.Context, db *gorm.DB, id int, fields map[string]interface{}) error {
	var model T
	if len(fields) == 0 {
		return nil
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}
	err := db.WithContext(ctx).Model(&model).Where("id = ?", id).Updates(fields).Error
	return utils.StoreError("update "+utils.LowercaseFirst(utils.GetTypeName[T]()), err)
}

// insert the row only, associations are written separately
func insertRow[T any](ctx context.Context, db *gorm.DB, row *T) error {
	err := db.WithContext(ctx).Omit(clause.Associations).Create(row).Error
	return utils.StoreError("create "+utils.LowercaseFirst(utils.GetTypeName[T]()), err)
}

// delete the parent row of type P together with its detail rows D
func deleteWithDetails[P any, D any](ctx context.Context, db *gorm.DB, id int, foreignKey string) error {
	var parent P
	var detail D
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(foreignKey+" = ?", id).Delete(&detail).Error; err != nil {
			return utils.StoreError("delete "+utils.LowercaseFirst(utils.GetTypeName[D]()), err)
		}
		result := tx.Where("id = ?", id).Delete(&parent)
		if result.Error != nil {
			return utils.StoreError("delete "+utils.LowercaseFirst(utils.GetTypeName[P]()), result.Error)
		}
		if result.RowsAffected == 0 {
			return utils.ErrorRecordNotFound
		}
		return nil
	})
}

// fetch T by id with its Details in insertion order
func fetchWithDetails[T any](ctx context.Context, db *gorm.DB, id int) (*T, error) {
	var result T
	err := db.WithContext(ctx).Preload("Details", orderedDetails).First(&result, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, utils.StoreError("fetch "+utils.LowercaseFirst(utils.GetTypeName[T]()), err)
	}
	return &result, nil
}

func orderedDetails(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, utils.ErrorRecordNotFound)
}

// DuplicateCode is a document code allocated more than once.
type DuplicateCode struct {
	Table string `json:"table"`
	Code  string `json:"code"`
	Count int64  `json:"count"`
}

// DuplicateDocumentCodes lists quotation and order codes in [from, to) that were handed out twice.
func (s *GormStore) DuplicateDocumentCodes(ctx context.Context, from time.Time, to time.Time) ([]DuplicateCode, error) {
	sources := []struct {
		table      string
		dateColumn string
	}{
		{"quotations", "emission_date"},
		{"orders", "order_date"},
	}
	var results []DuplicateCode
	for _, src := range sources {
		var rows []DuplicateCode
		err := s.db.WithContext(ctx).Table(src.table).
			Select("code, COUNT(*) AS count").
			Where(src.dateColumn+" >= ? AND "+src.dateColumn+" < ?", from, to).
			Group("code").
			Having("COUNT(*) > 1").
			Order("code").
			Scan(&rows).Error
		if err != nil {
			return nil, utils.StoreError("duplicate codes "+src.table, err)
		}
		for i := range rows {
			rows[i].Table = src.table
		}
		results = append(results, rows...)
	}
	return results, nil
}
