// Package display describes the character LCD and provides an in-memory
// implementation of it.
package display

import (
	"strings"
	"sync"
)

const (
	DefaultRows = 4
	DefaultCols = 20
)

// Display is a character LCD addressed by row and column.
type Display interface {
	Clear()
	SetCursor(row, col int)
	Print(text string)
}

// PrintRow writes text at the start of row and pads it with spaces to width,
// so whatever was on the row before is fully replaced.
func PrintRow(d Display, row, width int, text string) {
	d.SetCursor(row, 0)
	if n := len([]rune(text)); n < width {
		text += strings.Repeat(" ", width-n)
	}
	d.Print(text)
}

// Grid is an in-memory character LCD. Printing overwrites cells from the
// cursor onward and moves the cursor; anything past the last column is lost,
// as on the real module.
type Grid struct {
	mu    sync.Mutex
	cells [][]rune
	row   int
	col   int
}

// NewGrid returns a blank rows × cols grid.
func NewGrid(rows, cols int) *Grid {
	g := &Grid{cells: make([][]rune, rows)}
	for i := range g.cells {
		g.cells[i] = make([]rune, cols)
	}
	g.blank()
	return g
}

func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blank()
	g.row, g.col = 0, 0
}

func (g *Grid) SetCursor(row, col int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.row, g.col = row, col
}

func (g *Grid) Print(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.row < 0 || g.row >= len(g.cells) {
		return
	}
	line := g.cells[g.row]
	for _, r := range text {
		if g.col >= 0 && g.col < len(line) {
			line[g.col] = r
		}
		g.col++
	}
}

// Row returns the contents of one row with trailing spaces removed.
func (g *Grid) Row(i int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 0 || i >= len(g.cells) {
		return ""
	}
	return strings.TrimRight(string(g.cells[i]), " ")
}

// Rows returns every row with trailing spaces removed.
func (g *Grid) Rows() []string {
	out := make([]string, g.Size())
	for i := range out {
		out[i] = g.Row(i)
	}
	return out
}

// Size returns the number of rows.
func (g *Grid) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.cells)
}

func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n")
}

func (g *Grid) blank() {
	for _, line := range g.cells {
		for j := range line {
			line[j] = ' '
		}
	}
}
