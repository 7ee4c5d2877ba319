package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/fitbooking/internal/clock"
	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/Domenick1991/fitbooking/internal/repository"
	"github.com/Domenick1991/fitbooking/internal/timezone"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const sampleTimezone = "Asia/Kolkata"

type sample struct {
	name       string
	instructor string
	daysAhead  int
	localTime  string
	slots      int
}

var samples = []sample{
	{"Morning Yoga", "Priya Sharma", 1, "07:00", 20},
	{"Evening Zumba", "Rahul Mehta", 1, "19:00", 15},
	{"HIIT Training", "Arjun Singh", 2, "07:30", 12},
	{"Power Yoga", "Sneha Patel", 3, "05:30", 18},
}

// SampleClasses creates the demo timetable when the catalog is empty and
// returns how many classes were added.
func SampleClasses(ctx context.Context, repo repository.ClassRepository, clk clock.Clock, lgr zerolog.Logger) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	if count > 0 {
		lgr.Debug().Int("classes", count).Msg("catalog not empty, skipping sample classes")
		return 0, nil
	}

	loc, err := timezone.Load(sampleTimezone)
	if err != nil {
		return 0, err
	}
	now := clk.Now()
	today := now.In(loc)

	var finalErr error
	created := 0
	for _, s := range samples {
		day := today.AddDate(0, 0, s.daysAhead).Format("2006-01-02")
		startsAt, err := timezone.ToUTC(day+" "+s.localTime, sampleTimezone)
		if err != nil {
			finalErr = errors.Join(finalErr, err)
			continue
		}

		class := &domain.Class{
			ID:         uuid.NewString(),
			Name:       s.name,
			Instructor: s.instructor,
			StartsAt:   startsAt,
			Timezone:   sampleTimezone,
			TotalSlots: s.slots,
			CreatedAt:  now,
		}
		if err := repo.Create(ctx, class); err != nil {
			lgr.Error().Err(err).Str("name", s.name).Msg("error creating sample class")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		created++
	}

	lgr.Info().Int("classes", created).Msg("seeded sample classes")
	return created, finalErr
}
