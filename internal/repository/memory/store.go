// Package memory keeps classes and bookings in process memory. Write
// transactions are single-writer: WithTx holds an exclusive lock for the
// whole callback, so check-then-insert sequences cannot interleave.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/Domenick1991/fitbooking/internal/repository"
)

type Store struct {
	writer sync.Mutex

	mu       sync.RWMutex
	classes  map[string]domain.Class
	bookings []domain.Booking
}

func NewStore() *Store {
	return &Store{classes: make(map[string]domain.Class)}
}

// tx buffers writes until the callback returns without error.
type tx struct {
	classes  []domain.Class
	bookings []domain.Booking
}

type txKey struct{}

func txFromContext(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writer.Lock()
	defer s.writer.Unlock()

	t := &tx{}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range t.classes {
		s.classes[c.ID] = c
	}
	s.bookings = append(s.bookings, t.bookings...)
	return nil
}

func (s *Store) Classes() repository.ClassRepository {
	return classRepo{s: s}
}

func (s *Store) Bookings() repository.BookingRepository {
	return bookingRepo{s: s}
}

type classRepo struct {
	s *Store
}

func (r classRepo) Create(ctx context.Context, class *domain.Class) error {
	return r.s.withTx(ctx, func(ctx context.Context) error {
		t := txFromContext(ctx)
		t.classes = append(t.classes, *class)
		return nil
	})
}

func (r classRepo) GetByID(ctx context.Context, id string) (*domain.Class, error) {
	if t := txFromContext(ctx); t != nil {
		for i := range t.classes {
			if t.classes[i].ID == id {
				c := t.classes[i]
				return &c, nil
			}
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.classes[id]
	if !ok {
		return nil, domain.ErrClassNotFound
	}
	return &c, nil
}

// GetForUpdate needs no extra locking: inside WithTx the caller already
// holds the writer lock.
func (r classRepo) GetForUpdate(ctx context.Context, id string) (*domain.Class, error) {
	return r.GetByID(ctx, id)
}

func (r classRepo) ListAvailability(ctx context.Context) ([]domain.ClassAvailability, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	booked := make(map[string]int, len(r.s.classes))
	for _, b := range r.s.bookings {
		booked[b.ClassID]++
	}

	out := make([]domain.ClassAvailability, 0, len(r.s.classes))
	for _, c := range r.s.classes {
		out = append(out, domain.ClassAvailability{Class: c, BookedSlots: booked[c.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r classRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.classes), nil
}

type bookingRepo struct {
	s *Store
}

func (r bookingRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.s.withTx(ctx, fn)
}

func (r bookingRepo) visible(ctx context.Context) []domain.Booking {
	r.s.mu.RLock()
	out := append([]domain.Booking(nil), r.s.bookings...)
	r.s.mu.RUnlock()
	if t := txFromContext(ctx); t != nil {
		out = append(out, t.bookings...)
	}
	return out
}

func (r bookingRepo) ExistsForEmail(ctx context.Context, classID, email string) (bool, error) {
	for _, b := range r.visible(ctx) {
		if b.ClassID == classID && strings.EqualFold(b.ClientEmail, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r bookingRepo) CountForClass(ctx context.Context, classID string) (int, error) {
	n := 0
	for _, b := range r.visible(ctx) {
		if b.ClassID == classID {
			n++
		}
	}
	return n, nil
}

func (r bookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	return r.s.withTx(ctx, func(ctx context.Context) error {
		if exists, _ := r.ExistsForEmail(ctx, booking.ClassID, booking.ClientEmail); exists {
			return domain.ErrDuplicateBooking
		}
		t := txFromContext(ctx)
		t.bookings = append(t.bookings, *booking)
		return nil
	})
}

func (r bookingRepo) ListByEmail(ctx context.Context, email string) ([]domain.BookingDetails, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.BookingDetails, 0)
	for _, b := range r.s.bookings {
		if !strings.EqualFold(b.ClientEmail, email) {
			continue
		}
		c, ok := r.s.classes[b.ClassID]
		if !ok {
			continue
		}
		out = append(out, domain.BookingDetails{
			Booking:       b,
			ClassName:     c.Name,
			ClassStartsAt: c.StartsAt,
			ClassTimezone: c.Timezone,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ClassStartsAt.Equal(out[j].ClassStartsAt) {
			return out[i].ClassStartsAt.Before(out[j].ClassStartsAt)
		}
		return out[i].BookedAt.Before(out[j].BookedAt)
	})
	return out, nil
}
