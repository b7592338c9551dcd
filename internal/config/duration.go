package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseTTL converts token lifetimes written the way they appear in .env
// files into a time.Duration.  Accepted forms:
//
//	"3600"  bare integer, seconds
//	"1d"    days
//	"2w"    weeks
//	"90m"   anything time.ParseDuration understands
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("duration must be positive: %q", s)
		}
		if n > math.MaxInt64/int64(time.Second) {
			return 0, fmt.Errorf("duration out of range: %q", s)
		}
		return time.Duration(n) * time.Second, nil
	}

	unit := s[len(s)-1]
	if unit == 'd' || unit == 'w' {
		n, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err != nil || math.IsNaN(n) || n <= 0 {
			return 0, fmt.Errorf("invalid duration: %q", s)
		}
		day := 24 * time.Hour
		if unit == 'w' {
			day *= 7
		}
		ns := n * float64(day)
		if ns >= math.MaxInt64 {
			return 0, fmt.Errorf("duration out of range: %q", s)
		}
		return time.Duration(ns), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %q", s)
	}
	return d, nil
}
