package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

var ErrBadSpreadsheet = apperr.Validation("Spreadsheet is empty or missing the header row")

// Spreadsheet columns, shared by import and export.
var productColumns = []string{
	"ID", "Category", "Name", "Description", "Price", "Available", "TrackStock", "Stock", "Position", "Image",
}

// ImportResult summarizes an import. Errors holds one message per skipped row.
type ImportResult struct {
	Created int      `json:"created_count"`
	Updated int      `json:"updated_count"`
	Skipped int      `json:"skipped_count"`
	Errors  []string `json:"errors,omitempty"`
}

// ExportProducts writes the restaurant's products as an xlsx workbook.
func (s *Service) ExportProducts(ctx context.Context, restaurantID uint, w io.Writer) error {
	if err := authorize(ctx, restaurantID); err != nil {
		return err
	}
	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("restaurant_id = ?", restaurantID).
		Order("category_id, position, id").
		Find(&products).Error
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}
	header := sheet.AddRow()
	for _, h := range productColumns {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		row.AddCell().SetString(category)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetString(yesNo(p.Available))
		row.AddCell().SetString(yesNo(p.TrackStock))
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetInt(p.Position)
		row.AddCell().SetString(p.Image)
	}
	return file.Write(w)
}

// ImportProducts creates or updates products from an xlsx workbook laid out
// like ExportProducts. Rows with an ID of an existing product of the restaurant
// update it; other rows create products. Unknown categories are created.
func (s *Service) ImportProducts(ctx context.Context, restaurantID uint, r io.ReaderAt, size int64) (ImportResult, error) {
	var result ImportResult
	if err := authorize(ctx, restaurantID); err != nil {
		return result, err
	}

	book, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return result, apperr.Wrap(ErrBadSpreadsheet, err)
	}
	if len(book.Sheets) == 0 || len(book.Sheets[0].Rows) < 2 {
		return result, ErrBadSpreadsheet
	}

	categories := map[string]uint{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.Category
		if err := tx.Where("restaurant_id = ?", restaurantID).Find(&existing).Error; err != nil {
			return err
		}
		for _, c := range existing {
			categories[strings.ToLower(c.Name)] = c.ID
		}

		for i, row := range book.Sheets[0].Rows[1:] {
			line := i + 2
			status, err := importRow(tx, restaurantID, row, categories)
			switch {
			case err != nil:
				if apperr.KindOf(err) == apperr.KindInternal {
					return err
				}
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", line, apperr.MessageOf(err)))
			case status == "created":
				result.Created++
			case status == "updated":
				result.Updated++
			}
		}
		return nil
	})
	return result, err
}

func importRow(tx *gorm.DB, restaurantID uint, row *xlsx.Row, categories map[string]uint) (string, error) {
	get := func(i int) string {
		if row == nil || i >= len(row.Cells) {
			return ""
		}
		return strings.TrimSpace(row.Cells[i].String())
	}

	name := get(2)
	if name == "" {
		return "", ErrNameRequired
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(get(4), ",", "."))
	if err != nil {
		return "", apperr.Validation("Invalid price")
	}
	if price.IsNegative() {
		return "", ErrNegativePrice
	}
	stock, _ := strconv.Atoi(get(7))
	if stock < 0 {
		return "", ErrNegativeStock
	}
	position, _ := strconv.Atoi(get(8))

	categoryName := get(1)
	if categoryName == "" {
		return "", apperr.Validation("Category is required")
	}
	categoryID, ok := categories[strings.ToLower(categoryName)]
	if !ok {
		c := models.Category{RestaurantID: restaurantID, Name: categoryName, Active: true, Position: len(categories)}
		if err := tx.Create(&c).Error; err != nil {
			return "", err
		}
		categoryID = c.ID
		categories[strings.ToLower(categoryName)] = c.ID
	}

	values := models.Product{
		RestaurantID: restaurantID,
		CategoryID:   categoryID,
		Name:         name,
		Description:  get(3),
		Price:        price.Round(2),
		Available:    parseYes(get(5), true),
		TrackStock:   parseYes(get(6), false),
		Stock:        stock,
		Position:     position,
		Image:        get(9),
	}

	if id, err := strconv.ParseUint(get(0), 10, 64); err == nil && id > 0 {
		var existing models.Product
		err := tx.Where("id = ? AND restaurant_id = ?", id, restaurantID).First(&existing).Error
		if err == nil {
			values.ID = existing.ID
			values.CreatedAt = existing.CreatedAt
			if err := tx.Omit("Groups", "Category").Save(&values).Error; err != nil {
				return "", err
			}
			return "updated", nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	}

	if err := tx.Create(&values).Error; err != nil {
		return "", err
	}
	return "created", nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseYes(s string, fallback bool) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "1", "sim", "s":
		return true
	case "no", "n", "false", "0", "nao", "não":
		return false
	}
	return fallback
}
