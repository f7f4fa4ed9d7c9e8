package session

import "time"

// Clock abstracts wall-clock time so stores and planes can be tested with
// fixed or stepped time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
