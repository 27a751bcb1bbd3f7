package tui

import (
	"fmt"
	"time"

	"github.com/vovakirdan/tui-tritris/internal/core"
	"github.com/vovakirdan/tui-tritris/internal/multiplayer"
	"github.com/vovakirdan/tui-tritris/internal/registry"
	"github.com/vovakirdan/tui-tritris/internal/tritris"
	"github.com/vovakirdan/tui-tritris/internal/tritris/board"
)

// boardView is what a board panel draws: a local kernel or a broadcast
// snapshot of another player.
type boardView struct {
	name     string
	board    *board.Board
	set      *board.PieceSet
	current  *board.Piece
	next     int
	score    int
	lines    int
	level    int
	alive    bool
	left     bool
	clearing []int
	clock    time.Duration
}

func viewOfGame(g *tritris.Game, name string) boardView {
	v := boardView{
		name:     name,
		board:    g.Board(),
		set:      g.Set(),
		next:     g.NextIndex(),
		score:    g.Score(),
		lines:    g.Lines(),
		level:    g.Level(),
		alive:    g.Alive(),
		clearing: g.ClearingRows(),
		clock:    g.Clock(),
	}
	if p, ok := g.Current(); ok {
		v.current = &p
	}
	return v
}

func viewOfPlayer(ps multiplayer.PlayerState) (boardView, error) {
	st := ps.State
	set, err := registry.Create(st.PieceSet)
	if err != nil {
		return boardView{}, err
	}
	b, err := board.Deserialize(st.Board)
	if err != nil {
		return boardView{}, fmt.Errorf("tui: board of %s: %w", ps.ID, err)
	}
	v := boardView{
		name:     ps.Name,
		board:    b,
		set:      set,
		next:     st.NextIndex,
		score:    st.Score,
		lines:    st.Lines,
		level:    st.Level,
		alive:    ps.Alive,
		left:     ps.Left,
		clearing: st.ClearRows,
		clock:    st.Clock,
	}
	if st.Current != nil {
		p, err := board.PieceFromState(set, *st.Current)
		if err == nil {
			v.current = &p
		}
	}
	return v, nil
}

func (v boardView) cellColor(val int) core.Color {
	if val == board.Garbage {
		return core.ColorGray
	}
	if s := v.set.Shape(val - 1); s != nil {
		return s.Color
	}
	return core.ColorWhite
}

func isClearing(rows []int, y int) bool {
	for _, r := range rows {
		if r == y {
			return true
		}
	}
	return false
}

// boardSize returns the panel size for a board drawn with cells of the given width.
func boardSize(w, h, cellW int) (int, int) {
	return w*cellW + 2, h + 2
}

// drawBoard draws the board with a frame at (x, y). Each cell is cellW
// characters wide.
func drawBoard(s *core.Screen, x, y, cellW int, v boardView) {
	fw, fh := boardSize(v.board.Width, v.board.Height, cellW)
	s.DrawBox(core.Rect{X: x, Y: y, W: fw, H: fh})

	filled := "[]"
	empty := " ."
	if cellW == 1 {
		filled, empty = "#", "."
	}

	for by := 0; by < v.board.Height; by++ {
		flash := isClearing(v.clearing, by)
		for bx := 0; bx < v.board.Width; bx++ {
			px := x + 1 + bx*cellW
			py := y + 1 + by
			val := v.board.At(bx, by)
			switch {
			case flash:
				s.DrawColorText(px, py, filled, core.ColorWhite)
			case val != board.Empty:
				s.DrawColorText(px, py, filled, v.cellColor(val))
			default:
				s.DrawColorText(px, py, empty, core.ColorGray)
			}
		}
	}

	if v.current != nil && v.alive {
		color := v.current.Shape().Color
		for _, c := range v.current.Cells() {
			if c.Y < 0 || c.Y >= v.board.Height {
				continue
			}
			s.DrawColorText(x+1+c.X*cellW, y+1+c.Y, filled, color)
		}
	}

	switch {
	case v.left:
		drawBanner(s, x, y, fw, fh, "LEFT")
	case !v.alive:
		drawBanner(s, x, y, fw, fh, "TOP OUT")
	}
}

func drawBanner(s *core.Screen, x, y, w, h int, text string) {
	tx := x + (w-len(text))/2
	s.DrawColorText(tx, y+h/2, text, core.ColorRed)
}

// drawPreview draws the next piece in a small box.
func drawPreview(s *core.Screen, x, y int, set *board.PieceSet, typ int) {
	s.DrawText(x, y, "NEXT")
	shape := set.Shape(typ)
	if shape == nil {
		return
	}
	for _, c := range shape.Cells(0) {
		s.DrawColorText(x+c.X*2, y+1+c.Y, "[]", shape.Color)
	}
}

// drawStats draws the score panel of a board.
func drawStats(s *core.Screen, x, y int, v boardView) int {
	lines := []string{
		v.name,
		"",
		fmt.Sprintf("SCORE %d", v.score),
		fmt.Sprintf("LINES %d", v.lines),
		fmt.Sprintf("LEVEL %d", v.level),
	}
	for i, l := range lines {
		s.DrawText(x, y+i, l)
	}
	return y + len(lines)
}

// countdownText returns the text shown before time zero, or empty.
func countdownText(clock time.Duration) string {
	if clock >= 0 {
		return ""
	}
	secs := int((-clock + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d", secs)
}

// drawPlayfield draws the own board with its side panel and, to the
// right, the other players' boards in compact form. It returns false when
// the screen is too small.
func drawPlayfield(s *core.Screen, own boardView, others []boardView) bool {
	fw, fh := boardSize(own.board.Width, own.board.Height, 2)
	if fw+16 > s.Width() || fh > s.Height() {
		return false
	}

	drawBoard(s, 0, 0, 2, own)
	px := fw + 2
	y := drawStats(s, px, 1, own)
	drawPreview(s, px, y+1, own.set, own.next)

	if txt := countdownText(own.clock); txt != "" {
		drawBanner(s, 0, 0, fw, fh, txt)
	}

	ox := px + 14
	for _, o := range others {
		w, h := boardSize(o.board.Width, o.board.Height, 1)
		if ox+w > s.Width() || h+3 > s.Height() {
			break
		}
		drawBoard(s, ox, 0, 1, o)
		s.DrawText(ox, h, truncate(o.name, w))
		s.DrawText(ox, h+1, fmt.Sprintf("%d", o.score))
		ox += w + 1
	}
	return true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
