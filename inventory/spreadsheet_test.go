package inventory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarcrumb/storefront-api/database/dbtest"
	"github.com/sugarcrumb/storefront-api/models"
	"github.com/tealeg/xlsx"
)

func TestExportStock_Layout(t *testing.T) {
	db := dbtest.New(t)
	dbtest.Product(t, db, "Giant Cookie", "12.5", 7)
	dbtest.Flavor(t, db, "Lemon", "1", "2", "3", dbtest.FlavorStock{Mini: 1, Medium: 2, Large: 3})

	var buf bytes.Buffer
	require.NoError(t, ExportStock(context.Background(), db, &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	products := file.Sheet[ProductsSheet]
	require.NotNil(t, products)
	require.Len(t, products.Rows, 2)
	assert.Equal(t, "Giant Cookie", products.Rows[1].Cells[1].String())
	assert.Equal(t, "12.50", products.Rows[1].Cells[2].String())
	assert.Equal(t, "7", products.Rows[1].Cells[6].String())

	flavors := file.Sheet[FlavorsSheet]
	require.NotNil(t, flavors)
	require.Len(t, flavors.Rows, 2)
	assert.Equal(t, "3", flavors.Rows[1].Cells[7].String())
}

func TestImportStock_RoundTripWithEdits(t *testing.T) {
	db := dbtest.New(t)
	p := dbtest.Product(t, db, "Giant Cookie", "12.5", 7)
	f := dbtest.Flavor(t, db, "Lemon", "1", "2", "3", dbtest.FlavorStock{Mini: 1, Medium: 2, Large: 3})

	var buf bytes.Buffer
	require.NoError(t, ExportStock(context.Background(), db, &buf))
	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	products := file.Sheet[ProductsSheet]
	products.Rows[1].Cells[6].SetInt(40)
	newRow := products.AddRow()
	for _, v := range []string{"", "Brownie", "4.25", "no", "1", "", "12", "yes"} {
		newRow.AddCell().SetString(v)
	}
	badRow := products.AddRow()
	for _, v := range []string{"", "Broken", "abc", "no", "1", "", "1", "yes"} {
		badRow.AddCell().SetString(v)
	}

	flavors := file.Sheet[FlavorsSheet]
	flavors.Rows[1].Cells[7].SetInt(30)
	flavors.Rows[1].Cells[8].SetString("no")

	var edited bytes.Buffer
	require.NoError(t, file.Write(&edited))

	report, err := ImportStock(context.Background(), db, bytes.NewReader(edited.Bytes()), int64(edited.Len()))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Products row 4")

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 40, reloaded.StockQuantity)
	assert.True(t, dbtest.Money("12.5").Equal(reloaded.BasePrice))

	var brownie models.Product
	require.NoError(t, db.Where("name = ?", "Brownie").First(&brownie).Error)
	assert.Equal(t, 12, brownie.StockQuantity)
	assert.True(t, brownie.IsActive)

	var flavor models.Flavor
	require.NoError(t, db.First(&flavor, f.ID).Error)
	assert.Equal(t, 30, flavor.StockQuantityLarge)
	assert.Equal(t, 1, flavor.StockQuantityMini)
	assert.False(t, flavor.IsActive)
}

func TestImportStock_PackNeedsSize(t *testing.T) {
	db := dbtest.New(t)
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(ProductsSheet)
	require.NoError(t, err)
	addHeader(sheet, productHeaders)
	row := sheet.AddRow()
	for _, v := range []string{"", "Box", "20", "yes", "6", "Huge", "0", "yes"} {
		row.AddCell().SetString(v)
	}
	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))

	report, err := ImportStock(context.Background(), db, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Contains(t, report.Errors[0], "unknown flavor size")
}

func TestImportStock_NoKnownSheets(t *testing.T) {
	db := dbtest.New(t)
	file := xlsx.NewFile()
	_, err := file.AddSheet("Other")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))

	_, err = ImportStock(context.Background(), db, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.ErrorIs(t, err, ErrNoSheets)
}
