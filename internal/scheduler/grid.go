package scheduler

import (
	"cmp"
	"slices"
)

// Slot is the read-only view of one grid cell.
type Slot struct {
	Hour       int
	TimeSlot   string
	Available  bool
	ReservedBy string
}

// DaySchedule groups the slots for a single day.
type DaySchedule struct {
	Day   Day
	Slots []Slot
}

// Reservation is an owned slot.
type Reservation struct {
	Username string
	Day      Day
	Hour     int
}

// TimeSlot returns the formatted window of the reservation.
func (r Reservation) TimeSlot() string {
	return FormatTimeSlot(r.Hour)
}

// SortReservations orders rs by day in week order, then by hour.
func SortReservations(rs []Reservation) {
	slices.SortFunc(rs, func(a, b Reservation) int {
		if c := cmp.Compare(a.Day.index(), b.Day.index()); c != 0 {
			return c
		}
		return cmp.Compare(a.Hour, b.Hour)
	})
}

// Snapshot is the durable form of a grid: every owned slot. Cells that do not
// appear are vacant.
type Snapshot struct {
	Reservations []Reservation
}

// Grid is the 7x14 ownership table. An empty string marks a vacant cell.
//
// Grid performs no locking; the owner is expected to serialize access.
type Grid struct {
	cells [7][HoursPerDay]string
}

// NewGrid returns an all-vacant grid.
func NewGrid() *Grid {
	return &Grid{}
}

func cell(day Day, hour int) (int, int, bool) {
	d := day.index()
	if d < 0 || !ValidHour(hour) {
		return 0, 0, false
	}
	return d, hour - FirstHour, true
}

// Owner returns the username holding the slot, or "" when vacant or out of range.
func (g *Grid) Owner(day Day, hour int) string {
	d, h, ok := cell(day, hour)
	if !ok {
		return ""
	}
	return g.cells[d][h]
}

// IsVacant reports whether the slot exists and has no owner.
func (g *Grid) IsVacant(day Day, hour int) bool {
	d, h, ok := cell(day, hour)
	return ok && g.cells[d][h] == ""
}

// Assign sets the owner of a slot. It reports false when the coordinates are
// outside the grid.
func (g *Grid) Assign(day Day, hour int, username string) bool {
	d, h, ok := cell(day, hour)
	if !ok {
		return false
	}
	g.cells[d][h] = username
	return true
}

// Vacate clears a slot and reports whether it was owned.
func (g *Grid) Vacate(day Day, hour int) bool {
	d, h, ok := cell(day, hour)
	if !ok || g.cells[d][h] == "" {
		return false
	}
	g.cells[d][h] = ""
	return true
}

// OwnedOn returns the hour the user holds on day, if any.
func (g *Grid) OwnedOn(username string, day Day) (int, bool) {
	d := day.index()
	if d < 0 || username == "" {
		return 0, false
	}
	for h, owner := range g.cells[d] {
		if owner == username {
			return h + FirstHour, true
		}
	}
	return 0, false
}

// Reservations lists every slot owned by username in week order.
func (g *Grid) Reservations(username string) []Reservation {
	var out []Reservation
	for d, day := range Days {
		for h, owner := range g.cells[d] {
			if owner != "" && owner == username {
				out = append(out, Reservation{Username: owner, Day: day, Hour: h + FirstHour})
			}
		}
	}
	return out
}

// DaySlots returns the 14 slots of day ordered by hour. Unknown days yield nil.
func (g *Grid) DaySlots(day Day) []Slot {
	d := day.index()
	if d < 0 {
		return nil
	}
	slots := make([]Slot, 0, HoursPerDay)
	for h, owner := range g.cells[d] {
		hour := h + FirstHour
		slots = append(slots, Slot{
			Hour:       hour,
			TimeSlot:   FormatTimeSlot(hour),
			Available:  owner == "",
			ReservedBy: owner,
		})
	}
	return slots
}

// Week returns every day's slots in week order.
func (g *Grid) Week() []DaySchedule {
	week := make([]DaySchedule, 0, len(Days))
	for _, day := range Days {
		week = append(week, DaySchedule{Day: day, Slots: g.DaySlots(day)})
	}
	return week
}

// Occupied counts owned slots.
func (g *Grid) Occupied() int {
	count := 0
	for d := range g.cells {
		for _, owner := range g.cells[d] {
			if owner != "" {
				count++
			}
		}
	}
	return count
}

// Clear vacates every slot.
func (g *Grid) Clear() {
	g.cells = [7][HoursPerDay]string{}
}

// Snapshot captures every owned slot.
func (g *Grid) Snapshot() Snapshot {
	snap := Snapshot{Reservations: make([]Reservation, 0, g.Occupied())}
	for d, day := range Days {
		for h, owner := range g.cells[d] {
			if owner != "" {
				snap.Reservations = append(snap.Reservations, Reservation{Username: owner, Day: day, Hour: h + FirstHour})
			}
		}
	}
	return snap
}

// Restore replaces the grid contents with snap. Entries with unknown
// coordinates, empty owners, taken slots, or a second slot for the same user
// on one day are skipped and counted in the return value.
func (g *Grid) Restore(snap Snapshot) (skipped int) {
	g.Clear()
	for _, r := range snap.Reservations {
		if r.Username == "" {
			skipped++
			continue
		}
		if _, owned := g.OwnedOn(r.Username, r.Day); owned || !g.Assign(r.Day, r.Hour, r.Username) {
			skipped++
		}
	}
	return skipped
}
