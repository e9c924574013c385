package domain

import "time"

// StreakRecord tracks consecutive calendar days with at least one completed
// session.
type StreakRecord struct {
	CurrentStreak     int       `json:"currentStreak"`
	LastCompletedDate time.Time `json:"lastCompletedDate"`
}

// Advance applies the streak rule for a completion on today and returns the
// updated record:
//   - last completion yesterday: streak increments;
//   - last completion today: unchanged (one completion per day counts);
//   - anything else, including no prior record: streak resets to 1.
func (r StreakRecord) Advance(today time.Time) StreakRecord {
	switch {
	case SameDay(r.LastCompletedDate, today):
		return r
	case SameDay(r.LastCompletedDate, today.AddDate(0, 0, -1)):
		return StreakRecord{CurrentStreak: r.CurrentStreak + 1, LastCompletedDate: today}
	default:
		return StreakRecord{CurrentStreak: 1, LastCompletedDate: today}
	}
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
