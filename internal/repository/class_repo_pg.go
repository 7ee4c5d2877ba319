package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClassRepository interface {
	Create(ctx context.Context, class *domain.Class) error
	GetByID(ctx context.Context, id string) (*domain.Class, error)
	// GetForUpdate reads the class and, inside WithTx, holds its row lock
	// until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Class, error)
	ListAvailability(ctx context.Context) ([]domain.ClassAvailability, error)
	Count(ctx context.Context) (int, error)
}

type PGClassRepository struct {
	db *pgxpool.Pool
}

func NewClassRepository(db *pgxpool.Pool) ClassRepository {
	return &PGClassRepository{db: db}
}

const classColumns = `id, name, instructor, starts_at, timezone, total_slots, created_at`

func (r *PGClassRepository) Create(ctx context.Context, class *domain.Class) error {
	_, err := conn(ctx, r.db).Exec(ctx, `INSERT INTO classes (`+classColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		class.ID, class.Name, class.Instructor, class.StartsAt, class.Timezone, class.TotalSlots, class.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert class: %w", err)
	}
	return nil
}

func (r *PGClassRepository) GetByID(ctx context.Context, id string) (*domain.Class, error) {
	return r.get(ctx, `SELECT `+classColumns+` FROM classes WHERE id=$1`, id)
}

func (r *PGClassRepository) GetForUpdate(ctx context.Context, id string) (*domain.Class, error) {
	return r.get(ctx, `SELECT `+classColumns+` FROM classes WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGClassRepository) get(ctx context.Context, query, id string) (*domain.Class, error) {
	var c domain.Class
	err := conn(ctx, r.db).QueryRow(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.Instructor, &c.StartsAt, &c.Timezone, &c.TotalSlots, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClassNotFound
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	c.StartsAt = c.StartsAt.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (r *PGClassRepository) ListAvailability(ctx context.Context) ([]domain.ClassAvailability, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
SELECT c.id, c.name, c.instructor, c.starts_at, c.timezone, c.total_slots, c.created_at, COUNT(b.id)
FROM classes c
LEFT JOIN bookings b ON b.class_id = c.id
GROUP BY c.id
ORDER BY c.starts_at, c.id`)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	classes := make([]domain.ClassAvailability, 0)
	for rows.Next() {
		var c domain.ClassAvailability
		if err := rows.Scan(&c.ID, &c.Name, &c.Instructor, &c.StartsAt, &c.Timezone, &c.TotalSlots, &c.CreatedAt, &c.BookedSlots); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		c.StartsAt = c.StartsAt.UTC()
		c.CreatedAt = c.CreatedAt.UTC()
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (r *PGClassRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM classes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return n, nil
}

var _ ClassRepository = (*PGClassRepository)(nil)
