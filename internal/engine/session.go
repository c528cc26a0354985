package engine

import "time"

// Session describes the exchange trading window in its local time zone.
type Session struct {
	Location    *time.Location
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
}

func (s Session) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

// Minutes returns the total length of the session in minutes.
func (s Session) Minutes() int {
	return (s.CloseHour*60 + s.CloseMinute) - (s.OpenHour*60 + s.OpenMinute)
}

// MinutesElapsed returns whole minutes between the session open and t on
// t's calendar day. Negative before the open.
func (s Session) MinutesElapsed(t time.Time) int {
	lt := t.In(s.loc())
	open := time.Date(lt.Year(), lt.Month(), lt.Day(), s.OpenHour, s.OpenMinute, 0, 0, s.loc())
	return int(lt.Sub(open) / time.Minute)
}

// IsOpen reports whether t falls inside the trading window.
func (s Session) IsOpen(t time.Time) bool {
	elapsed := s.MinutesElapsed(t)
	return elapsed >= 0 && elapsed < s.Minutes()
}

// ProjectVolume extrapolates a partial-day volume to a full session.
// Before the open it returns 0; after the close the observed volume is
// already complete and is returned unchanged. Inside the session the
// elapsed minutes are clamped to at least 1 so the first minute never
// divides by zero.
func (s Session) ProjectVolume(observed float64, t time.Time) float64 {
	elapsed := s.MinutesElapsed(t)
	if elapsed < 0 {
		return 0
	}
	total := s.Minutes()
	if elapsed >= total {
		return observed
	}
	if elapsed < 1 {
		elapsed = 1
	}
	return observed / float64(elapsed) * float64(total)
}
