package archive

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Clock formats the current moment for log records. Local selects the
// host's zone, otherwise UTC.
type Clock struct {
	Local bool
	Now   func() time.Time
}

func (c Clock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now()
	if c.Local {
		return t.Local()
	}
	return t.UTC()
}

// Date returns YYYY-MM-DD.
func (c Clock) Date() string {
	return c.now().Format(DateLayout)
}

// Time returns HH:MM:SS.
func (c Clock) Time() string {
	return c.now().Format(TimeLayout)
}

// Stamp returns the date and time of a single instant, space separated.
func (c Clock) Stamp() string {
	t := c.now()
	return t.Format(DateLayout) + " " + t.Format(TimeLayout)
}
