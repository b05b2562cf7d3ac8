package api

import (
	"net/http"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/controller"
	"github.com/labstack/echo/v4"
)

func registerFanEndpoints(rest *echo.Echo, fanController controller.FanController) {
	group := rest.Group("/fan")

	group.GET("/", func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, fanController.Snapshot().Fans, indentationChar)
	})
}
