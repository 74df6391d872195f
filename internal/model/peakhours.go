package model

import (
	"fmt"
	"sort"
	"strings"
)

// PeakHours is a set of hours-of-day (0..23). NewPeakHours and
// ParsePeakHours return it sorted and deduplicated, but a literal may be in
// any order.
type PeakHours []int

// NewPeakHours normalizes hours into a sorted set.
func NewPeakHours(hours ...int) PeakHours {
	seen := map[int]bool{}
	out := make(PeakHours, 0, len(hours))
	for _, h := range hours {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	sort.Ints(out)
	return out
}

// Contains scans the set, so unsorted literals still match.
func (p PeakHours) Contains(hour int) bool {
	for _, h := range p {
		if h == hour {
			return true
		}
	}
	return false
}

func (p PeakHours) Empty() bool { return len(p) == 0 }

func (p PeakHours) String() string {
	parts := make([]string, len(p))
	for i, h := range p {
		parts[i] = fmt.Sprintf("%d", h)
	}
	return strings.Join(parts, ",")
}

// ParsePeakHours accepts comma-separated hours and [start-end) windows on a
// 24h clock, e.g. "6,7,8,18-21". A window with start > end wraps across
// midnight; start == end is empty.
func ParsePeakHours(s string) (PeakHours, error) {
	var hours []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := parseHour(lo)
			if err != nil {
				return nil, err
			}
			end, err := parseHour(hi)
			if err != nil {
				return nil, err
			}
			for h := 0; h < 24; h++ {
				if inWindow(h, start, end) {
					hours = append(hours, h)
				}
			}
			continue
		}
		h, err := parseHour(part)
		if err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return NewPeakHours(hours...), nil
}

// parseHour accepts "H", "HH" or "HH:00".
func parseHour(s string) (int, error) {
	s = strings.TrimSpace(s)
	if hh, mm, ok := strings.Cut(s, ":"); ok {
		if strings.TrimSpace(mm) != "00" {
			return 0, fmt.Errorf("invalid hour %q, peak hours are whole hours", s)
		}
		s = hh
	}
	var h int
	if _, err := fmt.Sscanf(s, "%d", &h); err != nil {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour %q", s)
	}
	return h, nil
}

func inWindow(h, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return h >= start && h < end
	}
	return h >= start || h < end
}
