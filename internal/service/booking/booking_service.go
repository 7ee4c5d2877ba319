package booking

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/fitbooking/internal/clock"
	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/Domenick1991/fitbooking/internal/kafka"
	"github.com/Domenick1991/fitbooking/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*domain.BookingView, error)
	ListForUser(ctx context.Context, email string, upcomingOnly bool) ([]domain.BookingView, error)
}

// Cache is the part of the class listing cache a booking makes stale.
type Cache interface {
	InvalidateClasses(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	classes            repository.ClassRepository
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	clock              clock.Clock
	validate           *validator.Validate
	log                zerolog.Logger
}

type BookInput struct {
	ClassID     string `json:"class_id"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email"`
}

type BookingServiceOption func(*BookingService)

func WithCache(c Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = c
	}
}

func WithEvents(p Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = p
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(c clock.Clock) BookingServiceOption {
	return func(s *BookingService) {
		s.clock = c
	}
}

func WithLogger(l zerolog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = l
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	classes repository.ClassRepository,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		classes:  classes,
		clock:    clock.NewSystem(),
		validate: validator.New(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book admits a client to a class. The class lookup, the started, duplicate
// and capacity checks and the insert run as one transaction with the class
// row locked, so concurrent requests for the same class are decided one at a
// time.
func (s *BookingService) Book(ctx context.Context, input BookInput) (*domain.BookingView, error) {
	name := strings.TrimSpace(input.ClientName)
	if name == "" {
		return nil, domain.Validation("client_name", "client name cannot be empty")
	}
	email, err := s.normalizeEmail("client_email", input.ClientEmail)
	if err != nil {
		return nil, err
	}
	classID := strings.TrimSpace(input.ClassID)
	if classID == "" {
		return nil, domain.ErrClassNotFound
	}

	var (
		class   *domain.Class
		booking domain.Booking
	)
	err = s.bookings.WithTx(ctx, func(ctx context.Context) error {
		c, err := s.classes.GetForUpdate(ctx, classID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if c.StartedAt(now) {
			return domain.ErrClassStarted
		}

		exists, err := s.bookings.ExistsForEmail(ctx, classID, email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateBooking
		}

		booked, err := s.bookings.CountForClass(ctx, classID)
		if err != nil {
			return err
		}
		if booked >= c.TotalSlots {
			return domain.ErrNoSlots
		}

		booking = domain.Booking{
			ID:          uuid.NewString(),
			ClassID:     classID,
			ClientName:  name,
			ClientEmail: email,
			BookedAt:    now,
		}
		if err := s.bookings.Create(ctx, &booking); err != nil {
			return err
		}
		class = c
		return nil
	})
	if err != nil {
		if domain.KindOf(err) != nil {
			s.log.Info().Err(err).Str("class_id", classID).Str("email", email).Msg("booking rejected")
			return nil, err
		}
		s.log.Error().Err(err).Str("class_id", classID).Msg("booking failed")
		return nil, fmt.Errorf("book class: %w", err)
	}

	details := domain.BookingDetails{
		Booking:       booking,
		ClassName:     class.Name,
		ClassStartsAt: class.StartsAt,
		ClassTimezone: class.Timezone,
	}

	if s.cache != nil {
		if err := s.cache.InvalidateClasses(ctx); err != nil {
			s.log.Warn().Err(err).Msg("classes cache invalidation failed")
		}
	}
	if err := s.publish(ctx, details); err != nil {
		s.log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to publish booking_created event")
	}

	s.log.Info().
		Str("booking_id", booking.ID).
		Str("class_id", classID).
		Str("email", email).
		Msg("class booked")

	view := details.View()
	return &view, nil
}

// ListForUser returns the bookings made with email, ordered by class start.
func (s *BookingService) ListForUser(ctx context.Context, email string, upcomingOnly bool) ([]domain.BookingView, error) {
	email, err := s.normalizeEmail("email", email)
	if err != nil {
		return nil, err
	}

	rows, err := s.bookings.ListByEmail(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("list bookings failed")
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	now := s.clock.Now()
	views := make([]domain.BookingView, 0, len(rows))
	for _, row := range rows {
		if upcomingOnly && !row.ClassStartsAt.After(now) {
			continue
		}
		views = append(views, row.View())
	}
	return views, nil
}

func (s *BookingService) normalizeEmail(field, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", domain.Validation(field, "email is required")
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return "", domain.Validation(field, "invalid email address")
	}
	return email, nil
}

func (s *BookingService) publish(ctx context.Context, d domain.BookingDetails) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:          kafka.EventBookingCreated,
		BookingID:     d.ID,
		ClassID:       d.ClassID,
		ClassName:     d.ClassName,
		ClassStartsAt: d.ClassStartsAt,
		ClassTimezone: d.ClassTimezone,
		ClientName:    d.ClientName,
		ClientEmail:   d.ClientEmail,
		BookedAt:      d.BookedAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, d.ClassID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, d.ID, event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
