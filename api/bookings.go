package api

import (
	"net/http"

	"github.com/Domenick1991/fitbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type BookingHandler struct {
	service booking.BookingUseCase
	log     zerolog.Logger
}

type bookRequest struct {
	ClassID     string `json:"class_id" binding:"required"`
	ClientName  string `json:"client_name" binding:"required"`
	ClientEmail string `json:"client_email" binding:"required,email"`
}

func NewBookingHandler(service booking.BookingUseCase, log zerolog.Logger) *BookingHandler {
	useJSONFieldNames()
	return &BookingHandler{service: service, log: log}
}

func (h *BookingHandler) Register(router gin.IRouter) {
	router.POST("/book", h.book)
	router.GET("/bookings", h.list)
}

func (h *BookingHandler) book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	view, err := h.service.Book(c.Request.Context(), booking.BookInput{
		ClassID:     req.ClassID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *BookingHandler) list(c *gin.Context) {
	upcoming, err := upcomingOnly(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	views, err := h.service.ListForUser(c.Request.Context(), c.Query("email"), upcoming)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
