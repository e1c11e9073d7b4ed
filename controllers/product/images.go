package productcontroller

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/catalog"
	"github.com/ronwsv/menuly-delivery/storage"
)

// UploadImage attaches the multipart field "image" to the record named by
// kind and the :id path parameter, e.g. POST /merchant/products/:id/image.
func UploadImage(svc *catalog.Service, kind catalog.ImageKind) gin.HandlerFunc {
	return UploadImageFor(svc, kind, "id")
}

// UploadImageFor is UploadImage with the record id read from param.
func UploadImageFor(svc *catalog.Service, kind catalog.ImageKind, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := response.UintParam(c, param)
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
		url, err := svc.AttachImage(c.Request.Context(), kind, id, header.Filename, contentType, body)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Image uploaded", gin.H{"url": url})
	}
}
