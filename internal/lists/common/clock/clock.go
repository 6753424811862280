package clock

import "time"

// Clock supplies the current time. Retention and dated blocks read "today" from it.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now().UTC()
}

// MockClock is a settable Clock for tests.
type MockClock struct {
	currentTime time.Time
}

// NewMockClock returns a MockClock frozen at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

func (c *MockClock) Now() time.Time {
	return c.currentTime
}

func (c *MockClock) Advance(d time.Duration) {
	c.currentTime = c.currentTime.Add(d)
}

// AdvanceDays moves the clock forward by n calendar days.
func (c *MockClock) AdvanceDays(n int) {
	c.currentTime = c.currentTime.AddDate(0, 0, n)
}
