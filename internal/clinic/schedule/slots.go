package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Hours is the clinic-wide fallback range [Open, Close) in whole hours, used
// for providers with no configured schedule.
type Hours struct {
	Open  int
	Close int
}

// DefaultClosedWeekday is the weekday treated as closed for providers with no
// configured schedule.
const DefaultClosedWeekday = time.Sunday

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// formatClock converts minutes since midnight to "HH:MM".
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddMinutes shifts a "HH:MM" clock value forward by the given minutes.
func AddMinutes(clock string, minutes int) (string, error) {
	start, err := parseClock(clock)
	if err != nil {
		return "", err
	}
	return formatClock(start + minutes), nil
}

// GenerateSlots produces the candidate "HH:MM" slots for a provider on a
// date. windows is the provider's full configured schedule (all weekdays):
//
//   - at least one window active on the date's weekday: enumerate each such
//     window from its start in interval steps, strictly before its end
//     (end exclusive), union the windows, sort, dedupe;
//   - a schedule is configured but no window is active that weekday: the
//     provider is not working that day and the result is empty;
//   - no schedule configured at all: fall back to the clinic-wide hours.
func GenerateSlots(date time.Time, intervalMinutes int, windows []ScheduleWindow, fallback Hours) []string {
	if intervalMinutes <= 0 {
		return nil
	}

	if len(windows) == 0 {
		return enumerate(fallback.Open*60, fallback.Close*60, intervalMinutes)
	}

	weekday := date.Weekday()
	seen := make(map[string]bool)
	var slots []string
	for _, w := range windows {
		if !w.Active || w.Weekday != weekday {
			continue
		}
		start, err := parseClock(w.StartTime)
		if err != nil {
			continue
		}
		end, err := parseClock(w.EndTime)
		if err != nil {
			continue
		}
		for _, s := range enumerate(start, end, intervalMinutes) {
			if !seen[s] {
				seen[s] = true
				slots = append(slots, s)
			}
		}
	}

	sort.Strings(slots)
	return slots
}

func enumerate(startMin, endMin, interval int) []string {
	var out []string
	for t := startMin; t < endMin; t += interval {
		out = append(out, formatClock(t))
	}
	return out
}

// MergeBusySlots combines busy-slot lists from any number of sources into
// one list sorted by time. The first occurrence of a given time wins; later
// duplicates do not overwrite its reason.
func MergeBusySlots(sources ...[]BusySlot) []BusySlot {
	seen := make(map[string]bool)
	var merged []BusySlot
	for _, src := range sources {
		for _, b := range src {
			if seen[b.Time] {
				continue
			}
			seen[b.Time] = true
			merged = append(merged, b)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Time < merged[j].Time })
	return merged
}

// DayDisabled reports whether date is unselectable for the provider whose
// configured schedule is windows: dates before today are disabled, as are
// weekdays with no active window (for providers with a schedule) and the
// default closed weekday (for providers without one).
func DayDisabled(date, today time.Time, windows []ScheduleWindow) bool {
	if dateOnly(date).Before(dateOnly(today)) {
		return true
	}

	if len(windows) == 0 {
		return date.Weekday() == DefaultClosedWeekday
	}

	for _, w := range windows {
		if w.Active && w.Weekday == date.Weekday() {
			return false
		}
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
