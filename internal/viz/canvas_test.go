package viz

import (
	"strings"
	"testing"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	if c.Grid[0][0] == 0x2800 {
		t.Error("set pixel left the cell empty")
	}
	c.Clear()
	if c.Grid[0][0] != 0x2800 {
		t.Error("clear did not reset the cell")
	}
}

func TestCanvasIgnoresOutOfRange(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(-1, 0)
	c.Set(0, -1)
	c.Set(100, 100)
	for _, row := range c.Grid {
		for _, cell := range row {
			if cell != 0x2800 {
				t.Fatal("out-of-range set lit a cell")
			}
		}
	}
}

func TestCanvasLineAndPolygon(t *testing.T) {
	c := NewCanvas(10, 10)
	c.DrawLine(0, 0, 19, 39)
	if !strings.ContainsFunc(c.String(), func(r rune) bool { return r > 0x2800 }) {
		t.Error("line drew nothing")
	}

	c.Clear()
	c.DrawPolygon([]int{2, 10, 10, 2}, []int{2, 2, 10, 10})
	lit := 0
	for _, row := range c.Grid {
		for _, cell := range row {
			if cell > 0x2800 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("polygon drew nothing")
	}
}

func TestLineColorThresholds(t *testing.T) {
	if LineColor(0.6) == LineColor(0.45) || LineColor(0.45) == LineColor(0.3) {
		t.Error("thickness classes map to the same color")
	}
}
