package api

import (
	"net/http"

	"github.com/Domenick1991/fitbooking/internal/service/classes"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ClassHandler struct {
	service classes.ClassUseCase
	log     zerolog.Logger
}

type createClassRequest struct {
	Name        string `json:"name" binding:"required"`
	Instructor  string `json:"instructor" binding:"required"`
	DatetimeStr string `json:"datetime_str" binding:"required"`
	TotalSlots  int    `json:"total_slots" binding:"min=1"`
	Timezone    string `json:"timezone_str"`
}

func NewClassHandler(service classes.ClassUseCase, log zerolog.Logger) *ClassHandler {
	useJSONFieldNames()
	return &ClassHandler{service: service, log: log}
}

func (h *ClassHandler) Register(router gin.IRouter) {
	router.GET("/classes", h.list)
	router.POST("/classes", h.create)
}

func (h *ClassHandler) list(c *gin.Context) {
	upcoming, err := upcomingOnly(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	views, err := h.service.List(c.Request.Context(), c.Query("timezone_str"), upcoming)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *ClassHandler) create(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	view, err := h.service.Create(c.Request.Context(), classes.CreateClassInput{
		Name:        req.Name,
		Instructor:  req.Instructor,
		DatetimeStr: req.DatetimeStr,
		TotalSlots:  req.TotalSlots,
		Timezone:    req.Timezone,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}
