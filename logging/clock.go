package logging

import "time"

// SystemClock reads the wall clock, used outside of tests.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
