package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts every handler under /api/v1 behind recovery and request logging.
func NewRouter(log logrus.FieldLogger, bookings *BookingHandler, payments *PaymentHandler, flights *FlightHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	bookings.Register(v1)
	payments.Register(v1)
	flights.Register(v1)
	return router
}
