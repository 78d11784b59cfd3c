package area

// Latch turns a threshold check into a permanent unlock. Once open it stays
// open for the session regardless of later totals.
type Latch struct {
	threshold float64
	unlocked  bool
}

// NewLatch returns a locked latch for threshold.
func NewLatch(threshold float64) *Latch {
	return &Latch{threshold: threshold}
}

// Observe feeds the current total and reports whether this call opened the
// latch. Only the first crossing returns true.
func (l *Latch) Observe(total float64) bool {
	if l.unlocked || total < l.threshold {
		return false
	}
	l.unlocked = true
	return true
}

// Unlocked reports whether the threshold has ever been reached.
func (l *Latch) Unlocked() bool {
	return l.unlocked
}

// Threshold returns the configured threshold.
func (l *Latch) Threshold() float64 {
	return l.threshold
}
