package ticket

import (
	"fmt"
	"sync"
	"time"
)

const numberPrefix = "TKT-"

// NumberGenerator issues ticket numbers of the form
// TKT-YYYYMMDDhhmmssffffff in UTC. Numbers sort in issue order and never repeat
// within a process: when the clock has not moved past the last issued
// instant, the last instant plus one microsecond is used.
type NumberGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewNumberGenerator uses time.Now when now is nil.
func NewNumberGenerator(now func() time.Time) *NumberGenerator {
	if now == nil {
		now = time.Now
	}
	return &NumberGenerator{now: now}
}

func (g *NumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now().Truncate(time.Microsecond)
	if !g.last.IsZero() && !t.After(g.last) {
		t = g.last.Add(time.Microsecond)
	}
	g.last = t
	return FormatNumber(t)
}

// FormatNumber renders t in UTC as a ticket number. Local wall clocks repeat
// an hour when daylight saving ends.
func FormatNumber(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%s%s%06d", numberPrefix, u.Format("20060102150405"), u.Nanosecond()/int(time.Microsecond))
}
