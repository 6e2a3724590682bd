package player

import "sort"

// timerEntry is one scheduled callback. due is an absolute player time
// in milliseconds; seq breaks ties between entries due at the same
// instant so firing order matches registration order.
type timerEntry struct {
	id        int
	due       float64
	delay     float64
	repeating bool
	seq       int
	fire      func()
}

// timerTable is the player-owned implementation of host.Scheduler. The
// VMs register timeouts, intervals, and Timer objects here; the player
// fires due entries during Tick.
type timerTable struct {
	nowMs   float64
	nextID  int
	nextSeq int
	entries map[int]*timerEntry
}

func newTimerTable() *timerTable {
	return &timerTable{entries: make(map[int]*timerEntry)}
}

// Add schedules fire to run delayMs from now, repeating at that interval
// when repeating is set. Non-positive delays fire on the next tick.
func (t *timerTable) Add(delayMs float64, repeating bool, fire func()) int {
	t.nextID++
	t.nextSeq++
	t.entries[t.nextID] = &timerEntry{
		id:        t.nextID,
		due:       t.nowMs + delayMs,
		delay:     delayMs,
		repeating: repeating,
		seq:       t.nextSeq,
		fire:      fire,
	}
	return t.nextID
}

// Remove cancels a pending entry. It reports whether the id was live.
func (t *timerTable) Remove(id int) bool {
	if _, ok := t.entries[id]; !ok {
		return false
	}
	delete(t.entries, id)
	return true
}

// advance moves player time to toMs and fires every entry due on the
// way, earliest first, ties by registration order. A repeating entry
// reschedules relative to its own due time so intervals do not drift,
// but fires at most once per advance so a short interval cannot starve
// the tick.
func (t *timerTable) advance(toMs float64) {
	t.nowMs = toMs
	var due []*timerEntry
	for _, e := range t.entries {
		if e.due <= toMs {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	for _, e := range due {
		if _, live := t.entries[e.id]; !live {
			continue
		}
		if e.repeating {
			e.due += e.delay
			if e.due <= toMs {
				e.due = toMs + e.delay
			}
		} else {
			delete(t.entries, e.id)
		}
		e.fire()
	}
}
