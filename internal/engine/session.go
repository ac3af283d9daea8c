package engine

import (
	"fmt"
	"time"

	"intraday-trader/internal/store"
)

// IST is the exchange timezone. All session arithmetic happens in it.
var IST = time.FixedZone("IST", 5*3600+1800)

// Session holds the resolved intraday time windows. Times are minutes from
// midnight IST so comparisons stay allocation-free on the hot path.
type Session struct {
	openMin    int
	closeMin   int
	warmupMin  int
	cutoffMin  int
	flattenMin int
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time '%s': %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time '%s' out of range", s)
	}
	return h*60 + m, nil
}

func NewSession(cfg *store.Config) (*Session, error) {
	open, err := parseClock(cfg.Session.Open)
	if err != nil {
		return nil, err
	}
	close_, err := parseClock(cfg.Session.Close)
	if err != nil {
		return nil, err
	}
	cutoff, err := parseClock(cfg.Session.EntryCutoff)
	if err != nil {
		return nil, err
	}
	flatten, err := parseClock(cfg.Session.FlattenAt)
	if err != nil {
		return nil, err
	}
	s := &Session{
		openMin:    open,
		closeMin:   close_,
		warmupMin:  open + cfg.Session.WarmupMinutes,
		cutoffMin:  cutoff,
		flattenMin: flatten,
	}
	if !(s.openMin < s.warmupMin && s.warmupMin <= s.cutoffMin && s.cutoffMin <= s.flattenMin && s.flattenMin <= s.closeMin) {
		return nil, fmt.Errorf("session windows out of order: open %s warmup +%dm cutoff %s flatten %s close %s",
			cfg.Session.Open, cfg.Session.WarmupMinutes, cfg.Session.EntryCutoff, cfg.Session.FlattenAt, cfg.Session.Close)
	}
	return s, nil
}

func minuteOf(t time.Time) int {
	ist := t.In(IST)
	return ist.Hour()*60 + ist.Minute()
}

// InWindow reports whether t is within [open, close).
func (s *Session) InWindow(t time.Time) bool {
	m := minuteOf(t)
	return m >= s.openMin && m < s.closeMin
}

// PastWarmup reports whether the post-open warm-up has elapsed. Entries
// before this point are rejected.
func (s *Session) PastWarmup(t time.Time) bool {
	return minuteOf(t) >= s.warmupMin
}

// BeforeCutoff reports whether new entries are still allowed.
func (s *Session) BeforeCutoff(t time.Time) bool {
	return minuteOf(t) < s.cutoffMin
}

// FlattenDue reports whether the forced end-of-day flatten should run.
func (s *Session) FlattenDue(t time.Time) bool {
	return minuteOf(t) >= s.flattenMin
}

// TradingDay returns the IST calendar date of t, used for session rollover.
func (s *Session) TradingDay(t time.Time) string {
	return t.In(IST).Format("2006-01-02")
}
