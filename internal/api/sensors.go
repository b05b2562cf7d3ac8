package api

import (
	"net/http"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/sensors"
	"github.com/labstack/echo/v4"
)

func registerSensorEndpoints(rest *echo.Echo) {
	group := rest.Group("/sensor")

	group.GET("/", getSensors)
	group.GET("/:"+urlParamId+"/", getSensor)
}

// returns the last reading of every known temperature sensor
func getSensors(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, sensors.LastReadings.Items(), indentationChar)
}

func getSensor(c echo.Context) error {
	id := c.Param(urlParamId)
	value, exists := sensors.LastReadings.Get(id)
	if !exists {
		return returnNotFound(c, id)
	}
	return c.JSONPretty(http.StatusOK, value, indentationChar)
}
