package classes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/fitbooking/internal/clock"
	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/Domenick1991/fitbooking/internal/kafka"
	"github.com/Domenick1991/fitbooking/internal/repository"
	"github.com/Domenick1991/fitbooking/internal/repository/memory"
	"github.com/Domenick1991/fitbooking/internal/service/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClassRepository struct {
	mock.Mock
}

func (m *MockClassRepository) Create(ctx context.Context, class *domain.Class) error {
	args := m.Called(ctx, class)
	return args.Error(0)
}

func (m *MockClassRepository) GetByID(ctx context.Context, id string) (*domain.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Class), args.Error(1)
}

func (m *MockClassRepository) GetForUpdate(ctx context.Context, id string) (*domain.Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Class), args.Error(1)
}

func (m *MockClassRepository) ListAvailability(ctx context.Context) ([]domain.ClassAvailability, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ClassAvailability), args.Error(1)
}

func (m *MockClassRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetClasses(ctx context.Context) ([]domain.ClassAvailability, int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.ClassAvailability), args.Get(1).(int64), args.Error(2)
}

func (m *MockCache) SetClasses(ctx context.Context, classes []domain.ClassAvailability, generation int64) error {
	args := m.Called(ctx, classes, generation)
	return args.Error(0)
}

func (m *MockCache) InvalidateClasses(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value any) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// listingCache keeps the listing in memory with the same generation rules
// as the Redis cache.
type listingCache struct {
	mu   sync.Mutex
	rows []domain.ClassAvailability
	gen  int64
}

func (c *listingCache) GetClasses(_ context.Context) ([]domain.ClassAvailability, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows, c.gen, nil
}

func (c *listingCache) SetClasses(_ context.Context, classes []domain.ClassAvailability, generation int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation == c.gen {
		c.rows = classes
	}
	return nil
}

func (c *listingCache) InvalidateClasses(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.rows = nil
	return nil
}

// pausingRepository blocks the first ListAvailability after the store read
// until release is closed.
type pausingRepository struct {
	repository.ClassRepository
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *pausingRepository) ListAvailability(ctx context.Context) ([]domain.ClassAvailability, error) {
	rows, err := r.ClassRepository.ListAvailability(ctx)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return rows, err
}

var now = time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)

func TestClassService_Create_Success(t *testing.T) {
	repo := &MockClassRepository{}
	cache := &MockCache{}
	producer := &MockProducer{}
	service := NewClassService(repo,
		WithCache(cache),
		WithEvents(producer, "fitness.bookings"),
		WithClock(clock.NewFixed(now)),
	)
	ctx := context.Background()

	// Настройка моков
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Class")).Return(nil).Once()
	cache.On("InvalidateClasses", ctx).Return(nil).Once()
	producer.On("Publish", ctx, "fitness.bookings", mock.Anything, mock.MatchedBy(func(e kafka.ClassEvent) bool {
		return e.Type == kafka.EventClassCreated && e.Name == "Morning Yoga" && e.TotalSlots == 10
	})).Return(nil).Once()

	// Выполнение
	view, err := service.Create(ctx, CreateClassInput{
		Name:        "  Morning Yoga ",
		Instructor:  "Priya Sharma",
		DatetimeStr: "2025-01-15 18:00",
		TotalSlots:  10,
		Timezone:    "Asia/Kolkata",
	})

	// Проверки
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Morning Yoga", view.Name)
	assert.Equal(t, time.Date(2025, 1, 15, 12, 30, 0, 0, time.UTC), view.DatetimeUTC)
	assert.Equal(t, "2025-01-15 18:00:00 IST", view.DatetimeLocal)
	assert.Equal(t, "IST", view.ZoneAbbreviation)
	assert.Equal(t, 10, view.TotalSlots)
	assert.Equal(t, 10, view.AvailableSlots)
	assert.Equal(t, 0, view.BookedSlots)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestClassService_Create_DefaultTimezone(t *testing.T) {
	repo := &MockClassRepository{}
	service := NewClassService(repo, WithClock(clock.NewFixed(now)), WithDefaultTimezone("US/Pacific"))
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(c *domain.Class) bool {
		return c.Timezone == "US/Pacific"
	})).Return(nil).Once()

	view, err := service.Create(ctx, CreateClassInput{
		Name:        "HIIT Training",
		Instructor:  "Vikram Singh",
		DatetimeStr: "2025-01-15 06:00",
		TotalSlots:  3,
	})

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC), view.DatetimeUTC)
	assert.Equal(t, "PST", view.ZoneAbbreviation)
	repo.AssertExpectations(t)
}

func TestClassService_Create_ValidationErrors(t *testing.T) {
	service := NewClassService(&MockClassRepository{}, WithClock(clock.NewFixed(now)))
	valid := CreateClassInput{
		Name:        "Evening Zumba",
		Instructor:  "Rahul Verma",
		DatetimeStr: "2025-01-15 18:00",
		TotalSlots:  5,
		Timezone:    "Asia/Kolkata",
	}

	testCases := []struct {
		name   string
		modify func(in *CreateClassInput)
		field  string
	}{
		{"Empty name", func(in *CreateClassInput) { in.Name = "   " }, "name"},
		{"Empty instructor", func(in *CreateClassInput) { in.Instructor = "" }, "instructor"},
		{"Zero slots", func(in *CreateClassInput) { in.TotalSlots = 0 }, "total_slots"},
		{"Negative slots", func(in *CreateClassInput) { in.TotalSlots = -2 }, "total_slots"},
		{"Bad datetime", func(in *CreateClassInput) { in.DatetimeStr = "15/01/2025 18:00" }, "datetime_str"},
		{"Unknown zone", func(in *CreateClassInput) { in.Timezone = "Mars/Olympus" }, "timezone_str"},
		{"In the past", func(in *CreateClassInput) { in.DatetimeStr = "2025-01-01 09:00" }, "datetime_str"},
		{"Exactly now", func(in *CreateClassInput) { in.DatetimeStr = "2025-01-10 11:30" }, "datetime_str"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.modify(&in)

			view, err := service.Create(context.Background(), in)

			assert.Nil(t, view)
			require.ErrorIs(t, err, domain.ErrValidation)
			var de *domain.Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tc.field, de.Field)
		})
	}
}

func TestClassService_Create_RepositoryError(t *testing.T) {
	repo := &MockClassRepository{}
	cache := &MockCache{}
	service := NewClassService(repo, WithCache(cache), WithClock(clock.NewFixed(now)))
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(errors.New("connection refused")).Once()

	view, err := service.Create(ctx, CreateClassInput{
		Name: "Power Yoga", Instructor: "Anjali Patel", DatetimeStr: "2025-01-20 07:00", TotalSlots: 8, Timezone: "Asia/Kolkata",
	})

	assert.Nil(t, view)
	require.Error(t, err)
	assert.Nil(t, domain.KindOf(err))
	cache.AssertNotCalled(t, "InvalidateClasses", mock.Anything)
}

func TestClassService_List_FromRepositoryAndFilters(t *testing.T) {
	repo := &MockClassRepository{}
	cache := &MockCache{}
	service := NewClassService(repo, WithCache(cache), WithClock(clock.NewFixed(now)))
	ctx := context.Background()

	rows := []domain.ClassAvailability{
		{Class: domain.Class{ID: "past", Name: "Old", StartsAt: now.Add(-time.Hour), Timezone: "Asia/Kolkata", TotalSlots: 5}},
		{Class: domain.Class{ID: "next", Name: "Yoga", StartsAt: now.Add(24 * time.Hour), Timezone: "Asia/Kolkata", TotalSlots: 5}, BookedSlots: 2},
		{Class: domain.Class{ID: "full", Name: "Zumba", StartsAt: now.Add(48 * time.Hour), Timezone: "Asia/Kolkata", TotalSlots: 1}, BookedSlots: 1},
	}
	cache.On("GetClasses", ctx).Return(nil, int64(7), nil).Once()
	repo.On("ListAvailability", ctx).Return(rows, nil).Once()
	cache.On("SetClasses", ctx, rows, int64(7)).Return(nil).Once()

	views, err := service.List(ctx, "", true)

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "next", views[0].ID)
	assert.Equal(t, 3, views[0].AvailableSlots)
	assert.Equal(t, 2, views[0].BookedSlots)
	assert.Equal(t, "Asia/Kolkata", views[0].Timezone)
	assert.Equal(t, "full", views[1].ID)
	assert.Equal(t, 0, views[1].AvailableSlots)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestClassService_List_CacheHit(t *testing.T) {
	repo := &MockClassRepository{}
	cache := &MockCache{}
	service := NewClassService(repo, WithCache(cache), WithClock(clock.NewFixed(now)))
	ctx := context.Background()

	cached := []domain.ClassAvailability{
		{Class: domain.Class{ID: "a", StartsAt: now.Add(-time.Hour), Timezone: "UTC", TotalSlots: 2}},
	}
	cache.On("GetClasses", ctx).Return(cached, int64(1), nil).Once()

	views, err := service.List(ctx, "UTC", false)

	require.NoError(t, err)
	require.Len(t, views, 1)
	repo.AssertNotCalled(t, "ListAvailability", mock.Anything)
}

func TestClassService_List_CacheErrorFallsBack(t *testing.T) {
	repo := &MockClassRepository{}
	cache := &MockCache{}
	service := NewClassService(repo, WithCache(cache), WithClock(clock.NewFixed(now)))
	ctx := context.Background()

	cache.On("GetClasses", ctx).Return(nil, int64(0), errors.New("redis down")).Once()
	repo.On("ListAvailability", ctx).Return([]domain.ClassAvailability{}, nil).Once()

	views, err := service.List(ctx, "UTC", true)

	require.NoError(t, err)
	assert.Empty(t, views)
	repo.AssertExpectations(t)
	cache.AssertNotCalled(t, "SetClasses", mock.Anything, mock.Anything, mock.Anything)
}

func TestClassService_List_UnknownZone(t *testing.T) {
	repo := &MockClassRepository{}
	service := NewClassService(repo)

	views, err := service.List(context.Background(), "Nowhere/City", true)

	assert.Nil(t, views)
	assert.ErrorIs(t, err, domain.ErrValidation)
	repo.AssertNotCalled(t, "ListAvailability", mock.Anything)
}

func TestClassService_List_RepositoryError(t *testing.T) {
	repo := &MockClassRepository{}
	service := NewClassService(repo)
	ctx := context.Background()

	repo.On("ListAvailability", ctx).Return(nil, errors.New("boom")).Once()

	_, err := service.List(ctx, "UTC", true)

	require.Error(t, err)
	assert.Nil(t, domain.KindOf(err))
}

func TestClassService_ListInOtherZone(t *testing.T) {
	store := memory.NewStore()
	service := NewClassService(store.Classes(), WithClock(clock.NewFixed(now)))
	ctx := context.Background()

	winter, err := service.Create(ctx, CreateClassInput{
		Name: "Morning Yoga", Instructor: "Priya Sharma", DatetimeStr: "2025-01-15 18:00", TotalSlots: 10, Timezone: "Asia/Kolkata",
	})
	require.NoError(t, err)
	summer, err := service.Create(ctx, CreateClassInput{
		Name: "Evening Yoga", Instructor: "Priya Sharma", DatetimeStr: "2025-06-15 18:00", TotalSlots: 10, Timezone: "Asia/Kolkata",
	})
	require.NoError(t, err)

	views, err := service.List(ctx, "US/Pacific", true)

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, winter.ID, views[0].ID)
	assert.Equal(t, "2025-01-15 04:30:00 PST", views[0].DatetimeLocal)
	assert.Equal(t, "PST", views[0].ZoneAbbreviation)
	assert.Equal(t, "US/Pacific", views[0].Timezone)
	assert.Equal(t, "Asia/Kolkata", views[0].OriginTimezone)

	assert.Equal(t, summer.ID, views[1].ID)
	assert.Equal(t, time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC), views[1].DatetimeUTC)
	assert.Equal(t, "2025-06-15 05:30:00 PDT", views[1].DatetimeLocal)
	assert.Equal(t, "PDT", views[1].ZoneAbbreviation)
}

func TestClassService_Get(t *testing.T) {
	repo := &MockClassRepository{}
	service := NewClassService(repo)
	ctx := context.Background()

	class := &domain.Class{ID: "c1", Name: "Yoga"}
	repo.On("GetByID", ctx, "c1").Return(class, nil).Once()
	repo.On("GetByID", ctx, "missing").Return(nil, domain.ErrClassNotFound).Once()

	got, err := service.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, class, got)

	_, err = service.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = service.Get(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrClassNotFound)

	repo.AssertExpectations(t)
}

func TestClassService_List_BookingDuringLoadIsNotCached(t *testing.T) {
	store := memory.NewStore()
	listing := &listingCache{}
	repo := &pausingRepository{
		ClassRepository: store.Classes(),
		read:            make(chan struct{}),
		release:         make(chan struct{}),
	}
	service := NewClassService(repo, WithCache(listing), WithClock(clock.NewFixed(now)))
	bookings := booking.NewBookingService(store.Bookings(), store.Classes(),
		booking.WithCache(listing),
		booking.WithClock(clock.NewFixed(now)),
	)
	ctx := context.Background()

	require.NoError(t, store.Classes().Create(ctx, &domain.Class{
		ID: "c1", Name: "Yoga", Instructor: "Priya Sharma", StartsAt: now.Add(24 * time.Hour), Timezone: "UTC", TotalSlots: 1,
	}))

	loaded := make(chan []domain.ClassView, 1)
	go func() {
		views, err := service.List(ctx, "UTC", true)
		assert.NoError(t, err)
		loaded <- views
	}()

	// The listing has read the store but not written the cache yet.
	<-repo.read
	_, err := bookings.Book(ctx, booking.BookInput{ClassID: "c1", ClientName: "Alice", ClientEmail: "alice@example.com"})
	close(repo.release)
	require.NoError(t, err)

	inFlight := <-loaded
	require.Len(t, inFlight, 1)
	assert.Equal(t, 1, inFlight[0].AvailableSlots)

	views, err := service.List(ctx, "UTC", true)

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 0, views[0].AvailableSlots)
	assert.Equal(t, 1, views[0].BookedSlots)
}
