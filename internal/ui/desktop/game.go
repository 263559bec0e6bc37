//go:build desktop

package desktop

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"aizily/backend/internal/timegrid"
)

var (
	background = color.RGBA{0x11, 0x18, 0x27, 0xff}
	headerFill = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	majorLine  = color.RGBA{0x4b, 0x55, 0x63, 0xff}
	minorLine  = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	selectFill = color.RGBA{0x25, 0x63, 0xeb, 0x99}
)

// Run opens a window showing s and blocks until it closes.
func Run(s *Surface, title string) error {
	w, h := s.Size()
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	s.Load()
	return ebiten.RunGame(&game{s: s})
}

type game struct {
	s *Surface

	touchIDs []ebiten.TouchID
}

func (g *game) Update() error {
	g.s.Step(g.sample())
	if g.s.Quit() {
		return ebiten.Termination
	}
	return nil
}

func (g *game) sample() Sample {
	x, y := ebiten.CursorPosition()
	_, wheel := ebiten.Wheel()
	in := Sample{
		Focused:       ebiten.IsFocused(),
		CursorX:       x,
		CursorY:       y,
		MousePressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		MouseReleased: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		WheelY:        wheel,
		Chars:         ebiten.AppendInputChars(nil),
	}

	g.touchIDs = inpututil.AppendJustPressedTouchIDs(g.touchIDs[:0])
	for _, id := range g.touchIDs {
		tx, ty := ebiten.TouchPosition(id)
		in.TouchesPressed = append(in.TouchesPressed, Touch{ID: int(id), X: tx, Y: ty})
	}
	g.touchIDs = inpututil.AppendJustReleasedTouchIDs(g.touchIDs[:0])
	for _, id := range g.touchIDs {
		tx, ty := inpututil.TouchPositionInPreviousTick(id)
		in.TouchesReleased = append(in.TouchesReleased, Touch{ID: int(id), X: tx, Y: ty})
	}
	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	for _, id := range g.touchIDs {
		tx, ty := ebiten.TouchPosition(id)
		in.Touches = append(in.Touches, Touch{ID: int(id), X: tx, Y: ty})
	}

	keys := map[ebiten.Key]Key{
		ebiten.KeyEnter:      KeyEnter,
		ebiten.KeyEscape:     KeyEscape,
		ebiten.KeyBackspace:  KeyBackspace,
		ebiten.KeyArrowLeft:  KeyPrevDay,
		ebiten.KeyArrowRight: KeyNextDay,
	}
	if !g.s.Prompting() {
		keys[ebiten.KeyT] = KeyToday
		keys[ebiten.KeyR] = KeyRefresh
		keys[ebiten.KeyQ] = KeyQuit
		// Letters are commands here, not title text.
		in.Chars = nil
	}
	for k, key := range keys {
		if inpututil.IsKeyJustPressed(k) {
			in.Keys = append(in.Keys, key)
		}
	}
	return in
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	w, h := g.s.Size()
	frame := g.s.View().Frame()
	top := float32(HeaderHeight) - float32(frame.ScrollTop)

	for _, l := range frame.Lines {
		y := top + float32(l.Y)
		if y < HeaderHeight || y > float32(h-FooterHeight) {
			continue
		}
		clr := minorLine
		if l.Major {
			clr = majorLine
			ebitenutil.DebugPrintAt(screen, l.Label, 6, int(y)+2)
		}
		vector.StrokeLine(screen, GutterWidth, y, float32(w), y, 1, clr, false)
	}

	bodyWidth := float32(w - GutterWidth - 8)
	blocks := append([]timegrid.Block(nil), frame.Blocks...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Z < blocks[j].Z })
	for _, b := range blocks {
		x := float32(GutterWidth)
		y := top + float32(b.Top)
		bh := float32(b.Height)
		if bh < 2 {
			bh = 2
		}
		vector.DrawFilledRect(screen, x, y, bodyWidth, bh, hexColor(b.Style.Fill, majorLine), false)
		vector.DrawFilledRect(screen, x, y, 3, bh, hexColor(b.Style.Border, majorLine), false)
		ebitenutil.DebugPrintAt(screen, b.Label, int(x)+6, int(y)+2)
	}

	if sel := frame.Selection; sel != nil {
		y := top + float32(sel.Top)
		vector.DrawFilledRect(screen, GutterWidth, y, bodyWidth, float32(sel.Height), selectFill, false)
		start, end := sel.Slot.Labels()
		ebitenutil.DebugPrintAt(screen, start+"-"+end, GutterWidth+6, int(y)+2)
	}

	vector.DrawFilledRect(screen, 0, 0, float32(w), HeaderHeight, headerFill, false)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  %s", frame.Date.Format("Mon 02 Jan 2006"), frame.Date.Location()), 8, 9)

	vector.DrawFilledRect(screen, 0, float32(h-FooterHeight), float32(w), FooterHeight, headerFill, false)
	footer := g.s.StatusLine()
	if g.s.Prompting() {
		title, start, end := g.s.Prompt()
		footer = fmt.Sprintf("Book %s-%s: %s_", start, end, title)
	}
	ebitenutil.DebugPrintAt(screen, footer, 8, h-FooterHeight+7)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if w, h := g.s.Size(); w != outsideWidth || h != outsideHeight {
		g.s.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}
