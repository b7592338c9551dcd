package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// env reads typed settings from viper.  A value that is set but cannot be
// parsed falls back to the default and is recorded; Load reports every
// recorded value at once.
type env struct {
	v    *viper.Viper
	errs []error
}

func (e *env) bad(k, kind string) {
	e.errs = append(e.errs, fmt.Errorf("%s: invalid %s %q", k, kind, e.v.GetString(k)))
}

func (e *env) err() error { return errors.Join(e.errs...) }

func (e *env) str(k, d string) string {
	if s := e.v.GetString(k); s != "" {
		return s
	}
	return d
}

func (e *env) boolean(k string, d bool) bool {
	if !e.v.IsSet(k) {
		return d
	}
	b, err := cast.ToBoolE(strings.TrimSpace(e.v.GetString(k)))
	if err != nil {
		e.bad(k, "boolean")
		return d
	}
	return b
}

func (e *env) integer(k string, d int) int {
	if !e.v.IsSet(k) {
		return d
	}
	n, err := cast.ToIntE(strings.TrimSpace(e.v.GetString(k)))
	if err != nil {
		e.bad(k, "integer")
		return d
	}
	return n
}

// duration accepts both Go durations and the day/second forms of ParseTTL.
func (e *env) duration(k string, d time.Duration) time.Duration {
	s := e.v.GetString(k)
	if s == "" {
		return d
	}
	dur, err := ParseTTL(s)
	if err != nil {
		e.bad(k, "duration")
		return d
	}
	return dur
}
