package clock

import (
	"time"

	"github.com/coopec/missions-backend/internal/application/port"
)

// SystemClock implements port.Clock with the real wall clock
type SystemClock struct{}

// NewSystemClock creates a new system clock
func NewSystemClock() port.Clock {
	return SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Verify interface compliance
var _ port.Clock = SystemClock{}
