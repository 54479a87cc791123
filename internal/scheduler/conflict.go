package scheduler

// ConflictType describes why a requested slot cannot be booked.
type ConflictType string

const (
	// ConflictTypeDailyLimit indicates the user already holds a slot that day.
	ConflictTypeDailyLimit ConflictType = "daily_limit"
	// ConflictTypeSlotTaken indicates another user holds the slot.
	ConflictTypeSlotTaken ConflictType = "slot_taken"
)

// Conflict details the existing booking that blocks a candidate reservation.
type Conflict struct {
	Type  ConflictType
	Day   Day
	Hour  int
	Owner string
}

// DetectConflict checks a candidate reservation against the grid. The daily
// limit is reported before slot occupancy, so a user re-requesting their own
// slot sees the daily limit conflict.
func DetectConflict(grid *Grid, candidate Reservation) (Conflict, bool) {
	if grid == nil {
		return Conflict{}, false
	}
	if hour, ok := grid.OwnedOn(candidate.Username, candidate.Day); ok {
		return Conflict{
			Type:  ConflictTypeDailyLimit,
			Day:   candidate.Day,
			Hour:  hour,
			Owner: candidate.Username,
		}, true
	}
	if owner := grid.Owner(candidate.Day, candidate.Hour); owner != "" {
		return Conflict{
			Type:  ConflictTypeSlotTaken,
			Day:   candidate.Day,
			Hour:  candidate.Hour,
			Owner: owner,
		}, true
	}
	return Conflict{}, false
}
