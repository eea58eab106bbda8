package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/funtimes-spookyeyes/internal/led"
)

func TestHalfLimiter(t *testing.T) {
	seg := led.NewSegment(2)
	seg.Set(0, led.RGB(255, 1, 128))
	seg.Set(1, led.White())
	HalfLimiter(seg)
	assert.Equal(t, led.RGB(127, 0, 64), seg.At(0))
	assert.Equal(t, led.RGB(127, 127, 127), seg.At(1))
}

func TestBudgetLimiterClamp(t *testing.T) {
	// 10 LEDs all white: 10 * 60mA = 600mA before the limit
	seg := led.NewSegment(10)
	seg.SetAll(led.White())
	BudgetLimiter(20, 300, 0.9)(seg)
	cur := EstimateCurrent(seg, 20)
	if cur > 300.1 {
		t.Fatalf("expected <= 300mA after limit, got %.2f mA", cur)
	}
	assert.Greater(t, cur, 290.0)
}

func TestBudgetLimiterUnderKnee(t *testing.T) {
	seg := led.NewSegment(1)
	seg.Set(0, led.RGB(255, 0, 0))
	BudgetLimiter(20, 100, 0.9)(seg)
	assert.Equal(t, led.RGB(255, 0, 0), seg.At(0))

	BudgetLimiter(20, 0, 0.9)(seg)
	assert.Equal(t, led.RGB(255, 0, 0), seg.At(0), "zero budget disables the stage")
}
