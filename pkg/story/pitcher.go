package story

// Pitcher holds the pebbles dropped so far and reports its water level.
type Pitcher struct {
	pebbles     int
	maxPebbles  int
	initialFill float64
}

// NewPitcher returns an empty pitcher.
func NewPitcher(maxPebbles int, initialFill float64) *Pitcher {
	return &Pitcher{maxPebbles: maxPebbles, initialFill: initialFill}
}

// AddPebble drops one pebble in. It reports false when the pitcher is full.
func (p *Pitcher) AddPebble() bool {
	if p.pebbles >= p.maxPebbles {
		return false
	}
	p.pebbles++
	return true
}

// Pebbles returns the number of pebbles inside.
func (p *Pitcher) Pebbles() int {
	return p.pebbles
}

// Full reports whether no more pebbles fit.
func (p *Pitcher) Full() bool {
	return p.pebbles >= p.maxPebbles
}

// Fill returns the water level in [initialFill, 1].
func (p *Pitcher) Fill() float64 {
	if p.maxPebbles <= 0 {
		return p.initialFill
	}
	return max(p.initialFill, float64(p.pebbles)/float64(p.maxPebbles))
}
