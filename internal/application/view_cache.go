package application

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/example/court-scheduler/internal/scheduler"
)

const weekViewKey = "week"

// viewCache stores rendered schedule views between mutations. Callers hold
// the reservation mutex around every access, so entries never outlive the
// grid state they were built from; the TTL only bounds memory for idle days.
type viewCache struct {
	store *cache.Cache
	ttl   time.Duration
}

func newViewCache(ttl time.Duration) *viewCache {
	if ttl <= 0 {
		return &viewCache{}
	}
	return &viewCache{
		store: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func dayViewKey(day scheduler.Day) string {
	return "day:" + string(day)
}

func (c *viewCache) week() ([]scheduler.DaySchedule, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	cached, ok := c.store.Get(weekViewKey)
	if !ok {
		return nil, false
	}
	return cloneWeek(cached.([]scheduler.DaySchedule)), true
}

func (c *viewCache) storeWeek(week []scheduler.DaySchedule) {
	if c == nil || c.store == nil {
		return
	}
	c.store.Set(weekViewKey, cloneWeek(week), cache.DefaultExpiration)
}

func (c *viewCache) day(day scheduler.Day) ([]scheduler.Slot, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	cached, ok := c.store.Get(dayViewKey(day))
	if !ok {
		return nil, false
	}
	return cloneSlots(cached.([]scheduler.Slot)), true
}

func (c *viewCache) storeDay(day scheduler.Day, slots []scheduler.Slot) {
	if c == nil || c.store == nil {
		return
	}
	c.store.Set(dayViewKey(day), cloneSlots(slots), cache.DefaultExpiration)
}

func (c *viewCache) invalidate() {
	if c == nil || c.store == nil {
		return
	}
	c.store.Flush()
}

func (c *viewCache) len() int {
	if c == nil || c.store == nil {
		return 0
	}
	return c.store.ItemCount()
}

func cloneSlots(slots []scheduler.Slot) []scheduler.Slot {
	if slots == nil {
		return nil
	}
	cloned := make([]scheduler.Slot, len(slots))
	copy(cloned, slots)
	return cloned
}

func cloneWeek(week []scheduler.DaySchedule) []scheduler.DaySchedule {
	if week == nil {
		return nil
	}
	cloned := make([]scheduler.DaySchedule, len(week))
	for i, day := range week {
		cloned[i] = scheduler.DaySchedule{Day: day.Day, Slots: cloneSlots(day.Slots)}
	}
	return cloned
}
