package productcontroller

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sugarcrumb/storefront-api/inventory"
	"gorm.io/gorm"
)

// GET /admin/inventory/export
func ExportStockToExcel(db *gorm.DB, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var buf bytes.Buffer
		if err := inventory.ExportStock(c.Request.Context(), db, &buf); err != nil {
			log.Error("Stock export failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=stock.xlsx")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}
}
