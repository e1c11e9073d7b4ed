package productcontroller

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/catalog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// POST /merchant/restaurants/:restaurantID/products/import-excel (multipart field "file")
func ImportProductsFromExcel(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		header, err := c.FormFile("file")
		if err != nil {
			response.BadRequest(c, "Excel file is required")
			return
		}
		file, err := header.Open()
		if err != nil {
			response.Fail(c, fmt.Errorf("open upload: %w", err))
			return
		}
		defer file.Close()

		result, err := svc.ImportProducts(c.Request.Context(), restaurantID, file, header.Size)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Import completed", result)
	}
}

// GET /merchant/restaurants/:restaurantID/products/export-excel
func ExportProductsToExcel(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := svc.ExportProducts(c.Request.Context(), restaurantID, &buf); err != nil {
			response.Fail(c, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Expires", "0")
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}
