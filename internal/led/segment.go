package led

// Segment is a fixed-length run of LEDs. Its length never changes after NewSegment.
//
// Index access is tolerant: writes past the end are dropped so effects may compute
// indices speculatively without faulting the render loop.
type Segment struct {
	leds []Led
}

// NewSegment allocates n LEDs, all black. Negative lengths are treated as zero.
func NewSegment(n int) *Segment {
	if n < 0 {
		n = 0
	}
	return &Segment{leds: make([]Led, n)}
}

func (s *Segment) Len() int { return len(s.leds) }

// Leds returns the backing slice. Writes through it mutate the segment.
func (s *Segment) Leds() []Led { return s.leds }

// Colors returns a snapshot of every LED color in order.
func (s *Segment) Colors() []Color {
	out := make([]Color, len(s.leds))
	for i := range s.leds {
		out[i] = s.leds[i].color
	}
	return out
}

// At returns the color at i, or black when i is out of range.
func (s *Segment) At(i int) Color {
	if i < 0 || i >= len(s.leds) {
		return Black()
	}
	return s.leds[i].color
}

// Set writes c at i. It reports false and does nothing when i is out of range.
func (s *Segment) Set(i int, c Color) bool {
	if i < 0 || i >= len(s.leds) {
		return false
	}
	s.leds[i].color = c
	return true
}

func (s *Segment) TurnOff() {
	for i := range s.leds {
		s.leds[i].TurnOff()
	}
}

func (s *Segment) SetAll(c Color) {
	for i := range s.leds {
		s.leds[i].color = c
	}
}

// CopyFrom copies as many colors from src as fit into s.
func (s *Segment) CopyFrom(src *Segment) {
	copy(s.leds, src.leds)
}
