package strategy

import (
	"sync"
	"time"
)

// Pick records which symbols a strategy selected at one rebalance.
type Pick struct {
	Date    time.Time
	Symbols []string
}

// PickLog is an append-only diagnostics sink for strategy selections. It is
// owned by the caller and passed by reference to strategies that report
// picks; it is the only mutable side channel a strategy may touch.
type PickLog struct {
	mu    sync.Mutex
	picks []Pick
}

// Record appends one rebalance's selections.
func (l *PickLog) Record(date time.Time, symbols []string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.picks = append(l.picks, Pick{Date: date, Symbols: append([]string(nil), symbols...)})
}

// Picks returns a copy of all recorded entries in insertion order.
func (l *PickLog) Picks() []Pick {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Pick(nil), l.picks...)
}

// AvgNonzero returns the mean pick count over rebalances that selected at
// least one symbol, or 0 if none did.
func (l *PickLog) AvgNonzero() float64 {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	total, n := 0, 0
	for _, p := range l.picks {
		if len(p.Symbols) > 0 {
			total += len(p.Symbols)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}
