package classes

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/fitbooking/internal/clock"
	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/Domenick1991/fitbooking/internal/kafka"
	"github.com/Domenick1991/fitbooking/internal/repository"
	"github.com/Domenick1991/fitbooking/internal/timezone"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultTimezone = "Asia/Kolkata"

type ClassUseCase interface {
	Create(ctx context.Context, input CreateClassInput) (*domain.ClassView, error)
	List(ctx context.Context, zone string, upcomingOnly bool) ([]domain.ClassView, error)
	Get(ctx context.Context, id string) (*domain.Class, error)
}

// Cache holds the availability listing. GetClasses reports a generation that
// InvalidateClasses bumps; SetClasses drops the write when it has moved on.
type Cache interface {
	GetClasses(ctx context.Context) ([]domain.ClassAvailability, int64, error)
	SetClasses(ctx context.Context, classes []domain.ClassAvailability, generation int64) error
	InvalidateClasses(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type ClassService struct {
	repo        repository.ClassRepository
	cache       Cache
	producer    Producer
	topic       string
	clock       clock.Clock
	defaultZone string
	log         zerolog.Logger
}

type CreateClassInput struct {
	Name        string `json:"name"`
	Instructor  string `json:"instructor"`
	DatetimeStr string `json:"datetime_str"`
	TotalSlots  int    `json:"total_slots"`
	Timezone    string `json:"timezone_str"`
}

type ClassServiceOption func(*ClassService)

func WithCache(c Cache) ClassServiceOption {
	return func(s *ClassService) {
		s.cache = c
	}
}

func WithEvents(p Producer, topic string) ClassServiceOption {
	return func(s *ClassService) {
		s.producer = p
		s.topic = topic
	}
}

func WithClock(c clock.Clock) ClassServiceOption {
	return func(s *ClassService) {
		s.clock = c
	}
}

// WithDefaultTimezone sets the zone used when a caller passes none.
func WithDefaultTimezone(zone string) ClassServiceOption {
	return func(s *ClassService) {
		if zone != "" {
			s.defaultZone = zone
		}
	}
}

func WithLogger(l zerolog.Logger) ClassServiceOption {
	return func(s *ClassService) {
		s.log = l
	}
}

func NewClassService(repo repository.ClassRepository, opts ...ClassServiceOption) *ClassService {
	s := &ClassService{
		repo:        repo,
		clock:       clock.NewSystem(),
		defaultZone: DefaultTimezone,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ClassService) DefaultTimezone() string {
	return s.defaultZone
}

func (s *ClassService) Create(ctx context.Context, input CreateClassInput) (*domain.ClassView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.Validation("name", "class name cannot be empty")
	}
	instructor := strings.TrimSpace(input.Instructor)
	if instructor == "" {
		return nil, domain.Validation("instructor", "instructor cannot be empty")
	}
	if input.TotalSlots < 1 {
		return nil, domain.Validation("total_slots", "total slots must be greater than 0")
	}

	zone := strings.TrimSpace(input.Timezone)
	if zone == "" {
		zone = s.defaultZone
	}
	startsAt, err := timezone.ToUTC(input.DatetimeStr, zone)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !startsAt.After(now) {
		return nil, domain.Validation("datetime_str", "class datetime must be in the future")
	}

	class := domain.Class{
		ID:         uuid.NewString(),
		Name:       name,
		Instructor: instructor,
		StartsAt:   startsAt,
		Timezone:   zone,
		TotalSlots: input.TotalSlots,
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, &class); err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("create class failed")
		return nil, fmt.Errorf("create class: %w", err)
	}

	s.invalidate(ctx)
	s.publish(ctx, class)

	s.log.Info().
		Str("class_id", class.ID).
		Str("name", class.Name).
		Time("starts_at", class.StartsAt).
		Int("total_slots", class.TotalSlots).
		Msg("class created")

	view, err := toView(domain.ClassAvailability{Class: class}, zone)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// List returns classes ordered by start instant with availability and times
// rendered in zone. An empty zone means the default zone.
func (s *ClassService) List(ctx context.Context, zone string, upcomingOnly bool) ([]domain.ClassView, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		zone = s.defaultZone
	}
	if _, err := timezone.Load(zone); err != nil {
		return nil, err
	}

	rows, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	views := make([]domain.ClassView, 0, len(rows))
	for _, row := range rows {
		if upcomingOnly && row.StartedAt(now) {
			continue
		}
		view, err := toView(row, zone)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	s.log.Debug().Int("count", len(views)).Str("timezone", zone).Bool("upcoming_only", upcomingOnly).Msg("listed classes")
	return views, nil
}

func (s *ClassService) Get(ctx context.Context, id string) (*domain.Class, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrClassNotFound
	}
	class, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if domain.KindOf(err) != nil {
			return nil, err
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	return class, nil
}

func (s *ClassService) load(ctx context.Context) ([]domain.ClassAvailability, error) {
	cacheable := false
	var generation int64
	if s.cache != nil {
		cached, gen, err := s.cache.GetClasses(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("classes cache read failed")
		} else if cached != nil {
			return cached, nil
		} else {
			cacheable = true
			generation = gen
		}
	}

	rows, err := s.repo.ListAvailability(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list classes failed")
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if cacheable {
		if err := s.cache.SetClasses(ctx, rows, generation); err != nil {
			s.log.Warn().Err(err).Msg("classes cache write failed")
		}
	}
	return rows, nil
}

func (s *ClassService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateClasses(ctx); err != nil {
		s.log.Warn().Err(err).Msg("classes cache invalidation failed")
	}
}

func (s *ClassService) publish(ctx context.Context, class domain.Class) {
	if s.producer == nil || s.topic == "" {
		return
	}
	event := kafka.ClassEvent{
		Type:       kafka.EventClassCreated,
		ClassID:    class.ID,
		Name:       class.Name,
		Instructor: class.Instructor,
		StartsAt:   class.StartsAt,
		Timezone:   class.Timezone,
		TotalSlots: class.TotalSlots,
	}
	if err := s.producer.Publish(ctx, s.topic, class.ID, event); err != nil {
		s.log.Warn().Err(err).Str("class_id", class.ID).Msg("failed to publish class_created event")
	}
}

func toView(c domain.ClassAvailability, zone string) (domain.ClassView, error) {
	local, err := timezone.Display(c.StartsAt, zone)
	if err != nil {
		return domain.ClassView{}, err
	}
	_, abbrev, err := timezone.FromUTC(c.StartsAt, zone)
	if err != nil {
		return domain.ClassView{}, err
	}
	available := c.AvailableSlots()
	return domain.ClassView{
		ID:               c.ID,
		Name:             c.Name,
		Instructor:       c.Instructor,
		DatetimeUTC:      c.StartsAt,
		DatetimeLocal:    local,
		Timezone:         zone,
		ZoneAbbreviation: abbrev,
		OriginTimezone:   c.Timezone,
		TotalSlots:       c.TotalSlots,
		AvailableSlots:   available,
		BookedSlots:      c.TotalSlots - available,
	}, nil
}

var _ ClassUseCase = (*ClassService)(nil)
