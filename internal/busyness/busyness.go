// Package busyness buckets a day's task count into a small set of tiers.
package busyness

// Tier is a day's busyness level, ordered from None to Busy.
type Tier int

const (
	// None is a day with no tasks.
	None Tier = iota
	// Light is a day with one task.
	Light
	// Moderate is a day with two to four tasks.
	Moderate
	// Busy is a day with five or more tasks.
	Busy
)

// Classify maps a task count to its tier. Negative counts are treated as zero.
func Classify(count int) Tier {
	switch {
	case count <= 0:
		return None
	case count <= 1:
		return Light
	case count <= 4:
		return Moderate
	default:
		return Busy
	}
}

func (t Tier) String() string {
	switch t {
	case None:
		return "none"
	case Light:
		return "light"
	case Moderate:
		return "moderate"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
