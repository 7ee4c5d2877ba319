package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/Domenick1991/fitbooking/internal/service/classes"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockClassUseCase struct {
	mock.Mock
}

func (m *MockClassUseCase) Create(ctx context.Context, input classes.CreateClassInput) (*domain.ClassView, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClassView), args.Error(1)
}

func (m *MockClassUseCase) List(ctx context.Context, zone string, upcomingOnly bool) ([]domain.ClassView, error) {
	args := m.Called(ctx, zone, upcomingOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ClassView), args.Error(1)
}

func (m *MockClassUseCase) Get(ctx context.Context, id string) (*domain.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Class), args.Error(1)
}

func newClassRouter(service classes.ClassUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewClassHandler(service, zerolog.Nop()).Register(router)
	return router
}

func TestClassHandler_list(t *testing.T) {
	mockService := &MockClassUseCase{}
	router := newClassRouter(mockService)

	views := []domain.ClassView{{ID: "c1", Name: "Morning Yoga", Timezone: "US/Pacific", AvailableSlots: 3}}
	mockService.On("List", mock.Anything, "US/Pacific", true).Return(views, nil).Once()
	mockService.On("List", mock.Anything, "", false).Return([]domain.ClassView{}, nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes?timezone_str=US/Pacific", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	got := decode[[]domain.ClassView](t, w)
	assert.Equal(t, views, got)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes?upcoming_only=0", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	mockService.AssertExpectations(t)
}

func TestClassHandler_listErrors(t *testing.T) {
	mockService := &MockClassUseCase{}
	router := newClassRouter(mockService)

	mockService.On("List", mock.Anything, "Mars/Base", true).Return(nil, domain.Validation("timezone_str", "unknown timezone")).Once()
	mockService.On("List", mock.Anything, "UTC", true).Return(nil, errors.New("list classes: db down")).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes?timezone_str=Mars/Base", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes?timezone_str=UTC", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestClassHandler_create(t *testing.T) {
	mockService := &MockClassUseCase{}
	router := newClassRouter(mockService)

	input := classes.CreateClassInput{
		Name: "Morning Yoga", Instructor: "Priya Sharma", DatetimeStr: "2030-01-15 18:00", TotalSlots: 10, Timezone: "Asia/Kolkata",
	}
	view := &domain.ClassView{ID: "c1", Name: "Morning Yoga", TotalSlots: 10, AvailableSlots: 10}
	mockService.On("Create", mock.Anything, input).Return(view, nil).Once()

	w := postJSON(t, router, "/classes", map[string]any{
		"name": "Morning Yoga", "instructor": "Priya Sharma", "datetime_str": "2030-01-15 18:00",
		"total_slots": 10, "timezone_str": "Asia/Kolkata",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, *view, decode[domain.ClassView](t, w))
	mockService.AssertExpectations(t)
}

func TestClassHandler_createErrors(t *testing.T) {
	mockService := &MockClassUseCase{}
	router := newClassRouter(mockService)

	w := postJSON(t, router, "/classes", map[string]any{
		"name": "Yoga", "instructor": "Priya", "datetime_str": "2030-01-15 18:00", "total_slots": 0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "total_slots must be at least 1")

	w = postJSON(t, router, "/classes", map[string]any{
		"name": "Yoga", "instructor": "Priya", "datetime_str": "2030-01-15 18:00", "total_slots": "ten",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mockService.On("Create", mock.Anything, mock.Anything).Return(nil, domain.Validation("datetime_str", "invalid datetime format")).Once()
	w = postJSON(t, router, "/classes", map[string]any{
		"name": "Yoga", "instructor": "Priya", "datetime_str": "tomorrow", "total_slots": 3,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "datetime_str", got["field"])
}
