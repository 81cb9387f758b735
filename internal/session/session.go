// Package session decides whether the simulated NSE trading session is
// live for a given wall-clock instant.
package session

import "time"

var ist = time.FixedZone("IST", 5*3600+30*60)

const (
	openMinute  = 9*60 + 15  // 09:15
	closeMinute = 15*60 + 30 // 15:30
)

// Location returns the fixed IST (UTC+5:30) zone the trading calendar
// is evaluated in.
func Location() *time.Location {
	return ist
}

// IsOpen reports whether the market is open at the given instant:
// Monday through Friday, 09:15 to 15:30 IST inclusive.
func IsOpen(now time.Time) bool {
	civil := now.In(ist)
	switch civil.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := civil.Hour()*60 + civil.Minute()
	return minute >= openMinute && minute <= closeMinute
}

// MinuteLabel formats the instant as the H:MM chart label used for
// history points, in IST with no zero-padded hour.
func MinuteLabel(now time.Time) string {
	civil := now.In(ist)
	return Label(civil.Hour(), civil.Minute())
}

// Label renders an H:MM label from an hour and minute pair.
func Label(hour, minute int) string {
	const digits = "0123456789"
	buf := make([]byte, 0, 5)
	if hour >= 10 {
		buf = append(buf, digits[hour/10])
	}
	buf = append(buf, digits[hour%10], ':', digits[minute/10], digits[minute%10])
	return string(buf)
}

// Clock abstracts wall-clock reads so schedulers and tests can share a
// controllable time source.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
