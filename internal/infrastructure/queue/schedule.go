package queue

import (
	"time"

	"github.com/momenta-tech/go-backend/pkg/e"
)

// NextOccurrence вычисляет ближайшее наступление времени суток hhmm ("HH:MM")
// относительно now: сегодня, если время ещё впереди, иначе завтра.
func NextOccurrence(now time.Time, hhmm string) (time.Time, error) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, e.ErrInvalidDispatch
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}

	return next, nil
}
