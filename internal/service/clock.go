package service

import "time"

// Clock abstracts wall-clock reads so cooldown and expiry math stays
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func NewSystemClock() Clock { return systemClock{} }
