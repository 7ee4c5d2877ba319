package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// WithTx scopes fn to one transaction; repositories called with the
	// context passed to fn take part in it.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ExistsForEmail(ctx context.Context, classID, email string) (bool, error)
	CountForClass(ctx context.Context, classID string) (int, error)
	Create(ctx context.Context, booking *domain.Booking) error
	ListByEmail(ctx context.Context, email string) ([]domain.BookingDetails, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

func (r *PGBookingRepository) ExistsForEmail(ctx context.Context, classID, email string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE class_id=$1 AND lower(client_email)=lower($2))`,
		classID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate booking: %w", err)
	}
	return exists, nil
}

func (r *PGBookingRepository) CountForClass(ctx context.Context, classID string) (int, error) {
	var n int
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE class_id=$1`, classID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	_, err := conn(ctx, r.db).Exec(ctx, `INSERT INTO bookings (id, class_id, client_name, client_email, booked_at)
		VALUES ($1, $2, $3, $4, $5)`,
		booking.ID, booking.ClassID, booking.ClientName, booking.ClientEmail, booking.BookedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateBooking
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) ListByEmail(ctx context.Context, email string) ([]domain.BookingDetails, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
SELECT b.id, b.class_id, b.client_name, b.client_email, b.booked_at, c.name, c.starts_at, c.timezone
FROM bookings b
JOIN classes c ON c.id = b.class_id
WHERE lower(b.client_email) = lower($1)
ORDER BY c.starts_at, b.booked_at, b.id`, email)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.BookingDetails, 0)
	for rows.Next() {
		var b domain.BookingDetails
		if err := rows.Scan(&b.ID, &b.ClassID, &b.ClientName, &b.ClientEmail, &b.BookedAt, &b.ClassName, &b.ClassStartsAt, &b.ClassTimezone); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.BookedAt = b.BookedAt.UTC()
		b.ClassStartsAt = b.ClassStartsAt.UTC()
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
