package scoring

import (
	"fmt"
	"runtime"
)

// Config holds the scoring policy. Weights are tunable but their relative
// order is fixed: national ID > phone > name.
type Config struct {
	NationalIDWeight int
	PhoneWeight      int
	NameWeight       int
	// NameThreshold is the inclusive minimum similarity for a NAME match.
	NameThreshold float64
	// Parallelism bounds concurrent per-candidate scoring. Zero means
	// GOMAXPROCS.
	Parallelism int
}

func DefaultConfig() Config {
	return Config{
		NationalIDWeight: 100,
		PhoneWeight:      80,
		NameWeight:       60,
		NameThreshold:    0.6,
		Parallelism:      runtime.GOMAXPROCS(0),
	}
}

// MaxScore is the score of a candidate matching on every signal with an
// identical name.
func (c Config) MaxScore() int {
	return c.NationalIDWeight + c.PhoneWeight + c.NameWeight
}

func (c Config) Validate() error {
	if c.NameWeight <= 0 {
		return fmt.Errorf("name weight must be positive, got %d", c.NameWeight)
	}
	if c.PhoneWeight <= c.NameWeight {
		return fmt.Errorf("phone weight (%d) must exceed name weight (%d)", c.PhoneWeight, c.NameWeight)
	}
	if c.NationalIDWeight <= c.PhoneWeight {
		return fmt.Errorf("national id weight (%d) must exceed phone weight (%d)", c.NationalIDWeight, c.PhoneWeight)
	}
	if c.NameThreshold <= 0 || c.NameThreshold > 1 {
		return fmt.Errorf("name threshold must be in (0, 1], got %v", c.NameThreshold)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative, got %d", c.Parallelism)
	}
	return nil
}
