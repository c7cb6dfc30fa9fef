package productcontroller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/inventory"
	"gorm.io/gorm"
)

// POST /admin/inventory/import (multipart, field "file")
func ImportStockFromExcel(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open Excel file"})
			return
		}
		defer file.Close()

		report, err := inventory.ImportStock(c.Request.Context(), db, file, excelFileHeader.Size)
		if errors.Is(err, inventory.ErrNoSheets) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			log.Error("Stock import failed", "file", excelFileHeader.Filename, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to import Excel file"})
			return
		}

		log.Info("Stock imported",
			"file", excelFileHeader.Filename,
			"created", report.Created,
			"updated", report.Updated,
			"skipped", report.Skipped)
		c.JSON(http.StatusOK, report)
	}
}
