package productcontroller

import (
	"github.com/gin-gonic/gin"
	"github.com/ronwsv/menuly-delivery/response"
	"github.com/ronwsv/menuly-delivery/services/catalog"
)

// GET /storefront/:slug/menu
func GetMenu(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		menu, err := svc.Menu(c.Request.Context(), c.Param("slug"))
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, "Menu fetched", menu)
	}
}
