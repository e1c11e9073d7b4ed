package adminController

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/catalog"
	"github.com/ronwsv/menuly-delivery/storage"
)

// POST /merchant/restaurants/:restaurantID/banners (multipart field "image")
func UploadBanner(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		restaurantID, ok := response.UintParam(c, "restaurantID")
		if !ok {
			return
		}
		file, header, err := c.Request.FormFile("image")
		if err != nil {
			response.BadRequest(c, "No image uploaded")
			return
		}
		defer file.Close()

		body, contentType, err := storage.Sniff(file)
		if err != nil {
			response.Fail(c, err)
			return
		}
		banner, err := svc.AddBanner(c.Request.Context(), restaurantID, header.Filename, contentType, body)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Created(c, "Banner uploaded", banner)
	}
}

// GET /storefront/:slug/banners
func GetBanners(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		banners, err := svc.Banners(c.Request.Context(), c.Param("slug"))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Banners fetched", banners)
	}
}

// DELETE /merchant/banners/:id removes the record and the stored image.
func DeleteBanner(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteBanner(c.Request.Context(), id); err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Banner deleted", nil)
	}
}
