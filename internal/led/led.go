package led

// Led is a single pixel slot of a Segment.
type Led struct {
	color Color
}

func (l *Led) Set(c Color) { l.color = c }

func (l *Led) Color() Color { return l.color }

func (l *Led) TurnOff() { l.color = Black() }
