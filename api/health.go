package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/fitbooking/internal/clock"
	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

type HealthHandler struct {
	clock clock.Clock
}

type healthResponse struct {
	Message   string    `json:"message"`
	Version   string    `json:"version"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func NewHealthHandler(clk clock.Clock) *HealthHandler {
	return &HealthHandler{clock: clk}
}

func (h *HealthHandler) Register(router gin.IRouter) {
	router.GET("/", h.health)
}

func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Message:   "Fitness Studio Booking API",
		Version:   Version,
		Status:    "healthy",
		Timestamp: h.clock.Now(),
	})
}
