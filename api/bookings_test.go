package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/Domenick1991/fitbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Book(ctx context.Context, input booking.BookInput) (*domain.BookingView, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingView), args.Error(1)
}

func (m *MockBookingUseCase) ListForUser(ctx context.Context, email string, upcomingOnly bool) ([]domain.BookingView, error) {
	args := m.Called(ctx, email, upcomingOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookingView), args.Error(1)
}

func newBookingRouter(service booking.BookingUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewBookingHandler(service, zerolog.Nop()).Register(router)
	return router
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestBookingHandler_book(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	input := booking.BookInput{ClassID: "class-1", ClientName: "Alice", ClientEmail: "alice@example.com"}
	view := &domain.BookingView{
		ID:            "b1",
		ClassID:       "class-1",
		ClassName:     "Morning Yoga",
		ClientName:    "Alice",
		ClientEmail:   "alice@example.com",
		BookingTime:   time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC),
		ClassDatetime: time.Date(2025, 1, 15, 12, 30, 0, 0, time.UTC),
	}
	mockService.On("Book", mock.Anything, input).Return(view, nil).Once()

	w := postJSON(t, router, "/book", map[string]string{
		"class_id": "class-1", "client_name": "Alice", "client_email": "alice@example.com",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	got := decode[domain.BookingView](t, w)
	assert.Equal(t, *view, got)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_bookErrors(t *testing.T) {
	body := map[string]string{"class_id": "class-1", "client_name": "Alice", "client_email": "alice@example.com"}

	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"Not found", domain.ErrClassNotFound, http.StatusNotFound, "class not found"},
		{"Duplicate", domain.ErrDuplicateBooking, http.StatusConflict, "duplicate booking"},
		{"No slots", domain.ErrNoSlots, http.StatusConflict, "no available slots"},
		{"Started", domain.ErrClassStarted, http.StatusConflict, "class has already started"},
		{"Validation", domain.Validation("client_email", "invalid email address"), http.StatusUnprocessableEntity, "invalid email address"},
		{"Fault", errors.New("book class: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			router := newBookingRouter(mockService)
			mockService.On("Book", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			w := postJSON(t, router, "/book", body)

			assert.Equal(t, tc.wantStatus, w.Code)
			got := decode[map[string]any](t, w)
			assert.Equal(t, tc.wantError, got["error"])
		})
	}
}

func TestBookingHandler_bookBadRequests(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	w := postJSON(t, router, "/book", map[string]string{
		"class_id": "class-1", "client_name": "Alice", "client_email": "not-an-email",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	got := decode[struct {
		Details []fieldError `json:"details"`
	}](t, w)
	require.Len(t, got.Details, 1)
	assert.Equal(t, "client_email", got.Details[0].Field)
	assert.Equal(t, "client_email must be a valid email address", got.Details[0].Message)

	w = postJSON(t, router, "/book", map[string]string{"client_email": "alice@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/book", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	mockService.AssertNotCalled(t, "Book", mock.Anything, mock.Anything)
}

func TestBookingHandler_list(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	views := []domain.BookingView{{ID: "b1", ClassID: "c1", ClientEmail: "alice@example.com"}}
	mockService.On("ListForUser", mock.Anything, "alice@example.com", true).Return(views, nil).Once()
	mockService.On("ListForUser", mock.Anything, "alice@example.com", false).Return([]domain.BookingView{}, nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings?email=alice@example.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.BookingView](t, w), 1)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings?email=alice@example.com&upcoming_only=false", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	mockService.AssertExpectations(t)
}

func TestBookingHandler_listErrors(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings?email=a@b.com&upcoming_only=maybe", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	mockService.On("ListForUser", mock.Anything, "bad", true).Return(nil, domain.Validation("email", "invalid email address")).Once()
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings?email=bad", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "email", got["field"])
}
