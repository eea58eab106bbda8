package layout

// Strip describes the physical LED strip a Segment is sized for.
type Strip struct {
	Count int
	// PadLastPixel allocates one extra, never-lit pixel past the end of the strip.
	// Some WS2811 runs flicker on the final pixel without it; verify on hardware before enabling.
	PadLastPixel bool
}

// Len is the segment length to allocate for the strip.
func (s Strip) Len() int {
	if s.Count <= 0 {
		return 0
	}
	if s.PadLastPixel {
		return s.Count + 1
	}
	return s.Count
}
