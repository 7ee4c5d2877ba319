package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var tagNames sync.Once

// useJSONFieldNames makes binding errors report the JSON name of a field.
func useJSONFieldNames() {
	tagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
}

func writeError(c *gin.Context, log zerolog.Logger, err error) {
	var status int
	switch domain.KindOf(err) {
	case domain.ErrValidation:
		status = http.StatusUnprocessableEntity
	case domain.ErrNotFound:
		status = http.StatusNotFound
	case domain.ErrConflict:
		status = http.StatusConflict
	default:
		log.Error().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var de *domain.Error
	if errors.As(err, &de) && de.Field != "" {
		body["error"] = de.Message
		body["field"] = de.Field
	}
	c.JSON(status, body)
}

// writeBindError answers 422 for failed binding rules and 400 for bodies
// that could not be decoded at all.
func writeBindError(c *gin.Context, err error) {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation failed",
			"details": translate(errs),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
}

func translate(errs validator.ValidationErrors) []fieldError {
	out := make([]fieldError, 0, len(errs))
	for _, err := range errs {
		message := err.Error()
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		}
		out = append(out, fieldError{Field: err.Field(), Message: message})
	}
	return out
}

// upcomingOnly reads the upcoming_only query flag, true when absent.
func upcomingOnly(c *gin.Context) (bool, error) {
	raw, ok := c.GetQuery("upcoming_only")
	if !ok || raw == "" {
		return true, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.Validation("upcoming_only", "must be a boolean")
	}
	return v, nil
}
