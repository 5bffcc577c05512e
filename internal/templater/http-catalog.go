package templater

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Services) AddCatalogServices(g *echo.Group) {
	g.GET("catalog/", s.getCatalog)
}

// getCatalog godoc
// @id getCatalog
// @Summary Каталог: список полей шаблона
// @Description Поля, которые можно вставить в документ, в порядке каталога.
// @Tags Catalog
// @Produce json
// @Success 200 {array} catalog.Field "Поля каталога"
// @Router /api/catalog/ [get]
func (s *Services) getCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, s.catalog.Fields())
}
