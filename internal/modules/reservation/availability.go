package reservation

import (
	"context"
	"fmt"
	"time"

	"charterdesk/internal/domain"
)

type ResourceKind string

const (
	ResourceVehicle ResourceKind = "vehicle"
	ResourceDriver  ResourceKind = "driver"
)

func (k ResourceKind) column() (string, error) {
	switch k {
	case ResourceVehicle:
		return "vehicle_id", nil
	case ResourceDriver:
		return "driver_id", nil
	}
	return "", invalidArgument("unknown resource kind %q", string(k))
}

// ParseResourceKind accepts "vehicle" or "driver".
func ParseResourceKind(s string) (ResourceKind, error) {
	k := ResourceKind(s)
	if _, err := k.column(); err != nil {
		return "", err
	}
	return k, nil
}

type conflictFinder interface {
	ExistsOnDay(ctx context.Context, column, resourceID string, start, end time.Time, excludeID string) (bool, error)
}

// AvailabilityChecker answers whether a vehicle or driver already has a
// reservation on a calendar day. Time of day is ignored.
type AvailabilityChecker struct {
	finder conflictFinder
	loc    *time.Location
}

func NewAvailabilityChecker(finder conflictFinder, loc *time.Location) *AvailabilityChecker {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityChecker{finder: finder, loc: loc}
}

// DayRange returns the inclusive bounds [00:00:00.000, 23:59:59.999] of the
// calendar day containing t in loc, expressed in UTC.
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start.UTC(), end.UTC()
}

// ServiceDay formats the calendar day containing t in loc.
func ServiceDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(domain.ServiceDayLayout)
}

// HasConflict reports whether resourceID is booked on day by a reservation
// other than excludeID. An empty resourceID never conflicts.
func (a *AvailabilityChecker) HasConflict(ctx context.Context, kind ResourceKind, resourceID string, day time.Time, excludeID string) (bool, error) {
	if resourceID == "" {
		return false, nil
	}
	column, err := kind.column()
	if err != nil {
		return false, err
	}

	start, end := DayRange(day, a.loc)
	found, err := a.finder.ExistsOnDay(ctx, column, resourceID, start, end, excludeID)
	if err != nil {
		return false, fmt.Errorf("check %s availability: %w", kind, err)
	}
	return found, nil
}

// EnsureAvailable returns a *ConflictError when the resource is taken.
func (a *AvailabilityChecker) EnsureAvailable(ctx context.Context, kind ResourceKind, resourceID string, day time.Time, excludeID string) error {
	taken, err := a.HasConflict(ctx, kind, resourceID, day, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return &ConflictError{Kind: kind, ResourceID: resourceID, Day: ServiceDay(day, a.loc)}
	}
	return nil
}
