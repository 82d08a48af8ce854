package screen

// Rolling accumulators with partial-window semantics: a value is produced
// from the first sample onward, using all available history up to the window
// size. Callers that need a statistically pure fixed window must filter by a
// minimum-history predicate themselves.

// rollingMean is a trailing-window running mean.
type rollingMean struct {
	window int
	buf    []float64
	head   int
	count  int
	sum    float64
}

func newRollingMean(window int) *rollingMean {
	if window < 1 {
		window = 1
	}
	return &rollingMean{window: window, buf: make([]float64, window)}
}

// Push adds a sample and returns the mean of the trailing window.
func (m *rollingMean) Push(v float64) float64 {
	if m.count == m.window {
		m.sum -= m.buf[m.head]
	} else {
		m.count++
	}
	m.buf[m.head] = v
	m.head = (m.head + 1) % m.window
	m.sum += v
	return m.sum / float64(m.count)
}

// rollingMax is a trailing-window maximum over a monotonically decreasing
// deque of (position, value) pairs.
type rollingMax struct {
	window int
	pos    int
	deque  []posVal
}

type posVal struct {
	pos int
	val float64
}

func newRollingMax(window int) *rollingMax {
	if window < 1 {
		window = 1
	}
	return &rollingMax{window: window}
}

// Push adds a sample and returns the max of the trailing window.
func (m *rollingMax) Push(v float64) float64 {
	// Drop entries that fell out of the window.
	for len(m.deque) > 0 && m.deque[0].pos <= m.pos-m.window {
		m.deque = m.deque[1:]
	}
	// Drop entries dominated by the new sample.
	for len(m.deque) > 0 && m.deque[len(m.deque)-1].val <= v {
		m.deque = m.deque[:len(m.deque)-1]
	}
	m.deque = append(m.deque, posVal{pos: m.pos, val: v})
	m.pos++
	return m.deque[0].val
}
