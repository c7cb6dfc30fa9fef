// Package inventory moves product and flavor stock in and out of Excel
// workbooks so the kitchen can update counts in bulk.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sugarcrumb/storefront-api/models"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

const (
	ProductsSheet = "Products"
	FlavorsSheet  = "Flavors"
)

var (
	productHeaders = []string{"ID", "Name", "BasePrice", "IsPack", "Count", "FlavorSize", "Stock", "Active"}
	flavorHeaders  = []string{"ID", "Name", "MiniPrice", "MediumPrice", "LargePrice", "StockMini", "StockMedium", "StockLarge", "Active"}
)

var ErrNoSheets = errors.New("workbook has neither a Products nor a Flavors sheet")

// ImportReport counts rows per outcome; Skipped rows are explained in Errors.
type ImportReport struct {
	Created int      `json:"created_count"`
	Updated int      `json:"updated_count"`
	Skipped int      `json:"skipped_count"`
	Errors  []string `json:"errors,omitempty"`
}

func (r *ImportReport) skip(sheet string, row int, format string, args ...any) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf("%s row %d: %s", sheet, row+1, fmt.Sprintf(format, args...)))
}

// ExportStock writes one sheet of products and one of flavors.
func ExportStock(ctx context.Context, db *gorm.DB, w io.Writer) error {
	var products []models.Product
	if err := db.WithContext(ctx).Order("sort_order, id").Find(&products).Error; err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	var flavors []models.Flavor
	if err := db.WithContext(ctx).Order("id").Find(&flavors).Error; err != nil {
		return fmt.Errorf("load flavors: %w", err)
	}

	file := xlsx.NewFile()

	sheet, err := file.AddSheet(ProductsSheet)
	if err != nil {
		return err
	}
	addHeader(sheet, productHeaders)
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.BasePrice.StringFixed(2))
		row.AddCell().SetString(yesNo(p.IsPack))
		row.AddCell().SetInt(p.Count)
		row.AddCell().SetString(string(p.FlavorSize))
		row.AddCell().SetInt(p.StockQuantity)
		row.AddCell().SetString(yesNo(p.IsActive))
	}

	sheet, err = file.AddSheet(FlavorsSheet)
	if err != nil {
		return err
	}
	addHeader(sheet, flavorHeaders)
	for _, f := range flavors {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(f.ID))
		row.AddCell().SetString(f.Name)
		row.AddCell().SetString(f.MiniPrice.StringFixed(2))
		row.AddCell().SetString(f.MediumPrice.StringFixed(2))
		row.AddCell().SetString(f.LargePrice.StringFixed(2))
		row.AddCell().SetInt(f.StockQuantityMini)
		row.AddCell().SetInt(f.StockQuantityMedium)
		row.AddCell().SetInt(f.StockQuantityLarge)
		row.AddCell().SetString(yesNo(f.IsActive))
	}

	return file.Write(w)
}

// ImportStock applies a workbook in the ExportStock layout. Rows with an ID
// update that record; rows without one create it. Malformed rows are skipped.
func ImportStock(ctx context.Context, db *gorm.DB, r io.ReaderAt, size int64) (ImportReport, error) {
	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return ImportReport{}, fmt.Errorf("parse workbook: %w", err)
	}

	productSheet := file.Sheet[ProductsSheet]
	flavorSheet := file.Sheet[FlavorsSheet]
	if productSheet == nil && flavorSheet == nil {
		return ImportReport{}, ErrNoSheets
	}

	var report ImportReport
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if productSheet != nil {
			if err := importProducts(tx, productSheet, &report); err != nil {
				return err
			}
		}
		if flavorSheet != nil {
			if err := importFlavors(tx, flavorSheet, &report); err != nil {
				return err
			}
		}
		return nil
	})
	return report, err
}

func importProducts(tx *gorm.DB, sheet *xlsx.Sheet, report *ImportReport) error {
	for i := 1; i < len(sheet.Rows); i++ {
		get := cellGetter(sheet.Rows[i])
		if isBlank(get, len(productHeaders)) {
			continue
		}

		name := get(1)
		price, err := decimal.NewFromString(get(2))
		if name == "" || err != nil {
			report.skip(ProductsSheet, i, "name and base price are required")
			continue
		}
		stock, err := strconv.Atoi(get(6))
		if err != nil || stock < 0 {
			report.skip(ProductsSheet, i, "invalid stock %q", get(6))
			continue
		}
		count, _ := strconv.Atoi(get(4))
		if count < 1 {
			count = 1
		}
		isPack := parseYes(get(3), false)
		var size models.FlavorSize
		if isPack {
			if size, err = models.ParseFlavorSize(get(5)); err != nil {
				report.skip(ProductsSheet, i, "%v", err)
				continue
			}
		}

		fields := map[string]any{
			"name":           name,
			"base_price":     price.Round(2),
			"is_pack":        isPack,
			"count":          count,
			"flavor_size":    size,
			"stock_quantity": stock,
			"is_active":      parseYes(get(7), true),
		}

		if id, err := strconv.ParseUint(get(0), 10, 64); err == nil {
			res := tx.Model(&models.Product{}).Where("id = ?", id).Updates(fields)
			if res.Error != nil {
				return fmt.Errorf("update product %d: %w", id, res.Error)
			}
			if res.RowsAffected == 0 {
				report.skip(ProductsSheet, i, "product %d does not exist", id)
				continue
			}
			report.Updated++
			continue
		}

		p := models.Product{Name: name}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("create product %q: %w", name, err)
		}
		if err := tx.Model(&p).Updates(fields).Error; err != nil {
			return fmt.Errorf("create product %q: %w", name, err)
		}
		report.Created++
	}
	return nil
}

func importFlavors(tx *gorm.DB, sheet *xlsx.Sheet, report *ImportReport) error {
	for i := 1; i < len(sheet.Rows); i++ {
		get := cellGetter(sheet.Rows[i])
		if isBlank(get, len(flavorHeaders)) {
			continue
		}

		name := get(1)
		if name == "" {
			report.skip(FlavorsSheet, i, "name is required")
			continue
		}

		fields := map[string]any{"name": name, "is_active": parseYes(get(8), true)}
		ok := true
		for col, key := range map[int]string{2: "mini_price", 3: "medium_price", 4: "large_price"} {
			v, err := decimal.NewFromString(get(col))
			if err != nil || v.IsNegative() {
				report.skip(FlavorsSheet, i, "invalid %s %q", key, get(col))
				ok = false
				break
			}
			fields[key] = v.Round(2)
		}
		if !ok {
			continue
		}
		for _, size := range []models.FlavorSize{models.FlavorSizeMini, models.FlavorSizeMedium, models.FlavorSizeLarge} {
			col := 4 + int(size.ID())
			n, err := strconv.Atoi(get(col))
			if err != nil || n < 0 {
				report.skip(FlavorsSheet, i, "invalid %s stock %q", size, get(col))
				ok = false
				break
			}
			fields[models.FlavorStockColumn(size)] = n
		}
		if !ok {
			continue
		}

		if id, err := strconv.ParseUint(get(0), 10, 64); err == nil {
			res := tx.Model(&models.Flavor{}).Where("id = ?", id).Updates(fields)
			if res.Error != nil {
				return fmt.Errorf("update flavor %d: %w", id, res.Error)
			}
			if res.RowsAffected == 0 {
				report.skip(FlavorsSheet, i, "flavor %d does not exist", id)
				continue
			}
			report.Updated++
			continue
		}

		f := models.Flavor{Name: name}
		if err := tx.Create(&f).Error; err != nil {
			return fmt.Errorf("create flavor %q: %w", name, err)
		}
		if err := tx.Model(&f).Updates(fields).Error; err != nil {
			return fmt.Errorf("create flavor %q: %w", name, err)
		}
		report.Created++
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetString(h)
	}
}

func cellGetter(row *xlsx.Row) func(int) string {
	return func(index int) string {
		if row != nil && index < len(row.Cells) {
			return strings.TrimSpace(row.Cells[index].String())
		}
		return ""
	}
}

func isBlank(get func(int) string, width int) bool {
	for i := 0; i < width; i++ {
		if get(i) != "" {
			return false
		}
	}
	return true
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseYes(s string, fallback bool) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "1":
		return true
	case "no", "n", "false", "0":
		return false
	default:
		return fallback
	}
}
