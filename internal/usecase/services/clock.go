package services

import "time"

// Clock is the only time source the engines consume; the scheduler and tests
// substitute their own.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
