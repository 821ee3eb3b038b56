package timeutil

import (
	"fmt"
	"time"
)

// LocalDateTime is a wall-clock reading with no attached zone, the unit of
// input/output for TimezoneResolver.
type LocalDateTime struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// Date truncates the time-of-day components, useful for enumerating local
// calendar days.
func (l LocalDateTime) Date() LocalDateTime {
	return LocalDateTime{Year: l.Year, Month: l.Month, Day: l.Day}
}

// AddDays returns the LocalDateTime shifted by n calendar days, normalizing
// month/year overflow the same way time.Date does.
func (l LocalDateTime) AddDays(n int) LocalDateTime {
	t := time.Date(l.Year, l.Month, l.Day+n, l.Hour, l.Minute, l.Second, 0, time.UTC)
	return LocalDateTime{Year: t.Year(), Month: t.Month(), Day: t.Day(), Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// Before reports whether l occurs strictly before other, treating both as
// naive wall-clock readings (no zone comparison).
func (l LocalDateTime) Before(other LocalDateTime) bool {
	return l.asUTC().Before(other.asUTC())
}

func (l LocalDateTime) asUTC() time.Time {
	return time.Date(l.Year, l.Month, l.Day, l.Hour, l.Minute, l.Second, 0, time.UTC)
}

// TimezoneResolver converts between wall-clock readings in a named IANA zone
// and absolute instants, centralizing DST existence/ambiguity handling so no
// other package reasons about time.Location directly.
//
// DST-created nonexistent local times (the spring-forward gap) are detected
// by IsValidLocal. DST-ambiguous local times (the fall-back overlap) resolve
// to the earlier of the two possible instants, which is time.Date's default
// (fold=0) behavior in the Go standard library.
type TimezoneResolver struct{}

// NewTimezoneResolver constructs a TimezoneResolver. It carries no state; the
// constructor exists so call sites can depend on it like the other
// collaborators in this package.
func NewTimezoneResolver() *TimezoneResolver {
	return &TimezoneResolver{}
}

// ToInstant converts a local wall-clock reading in the named zone to an
// absolute instant. A nonexistent local time (spring-forward gap) is
// resolved by time.Date to an instant whose wall reading differs from the
// input (02:30 on a US spring-forward day in America/New_York comes back as
// 01:30 EST); callers that must reject such times should call IsValidLocal
// first.
func (TimezoneResolver) ToInstant(local LocalDateTime, zone string) (time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid timezone %q: %w", zone, err)
	}
	return time.Date(local.Year, local.Month, local.Day, local.Hour, local.Minute, local.Second, 0, loc), nil
}

// ToLocalWall converts an absolute instant to a wall-clock reading in the
// named zone.
func (TimezoneResolver) ToLocalWall(instant time.Time, zone string) (LocalDateTime, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return LocalDateTime{}, fmt.Errorf("timeutil: invalid timezone %q: %w", zone, err)
	}
	in := instant.In(loc)
	return LocalDateTime{
		Year: in.Year(), Month: in.Month(), Day: in.Day(),
		Hour: in.Hour(), Minute: in.Minute(), Second: in.Second(),
	}, nil
}

// IsValidLocal reports whether the given local wall-clock reading actually
// exists in the named zone. It returns false for times that fall in a
// spring-forward gap, which time.Date otherwise silently normalizes.
func (r TimezoneResolver) IsValidLocal(local LocalDateTime, zone string) bool {
	instant, err := r.ToInstant(local, zone)
	if err != nil {
		return false
	}
	roundTrip, err := r.ToLocalWall(instant, zone)
	if err != nil {
		return false
	}
	return roundTrip == local
}

// IsValidIANAZone reports whether zone can be loaded as an IANA timezone name.
func IsValidIANAZone(zone string) bool {
	_, err := time.LoadLocation(zone)
	return err == nil
}
