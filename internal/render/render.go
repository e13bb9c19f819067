// Package render turns logical events (clock ticks, keystrokes, decoded
// samples) into the escape-sequence strings written to the terminal.
//
// Every function is pure: the caller owns the screen and decides when
// to write.  A single fixed ANSI dialect is assumed.
package render

import (
	"strconv"
	"strings"
	"time"
)

// ── ANSI sequences ───────────────────────────────────────────────────

const (
	ClearDisplay   = "\x1b[J"
	ClearEOL       = "\x1b[K"
	BoldOn         = "\x1b[1m"
	AttributesOff  = "\x1b[0m"
	GraphicCharSet = "\x1b(0"
	NormalCharSet  = "\x1b(B"

	// Glyph is drawn from the alternate character set (a diamond on
	// most DEC-compatible terminals).
	Glyph byte = '`'
)

// ── Screen layout ────────────────────────────────────────────────────

const (
	ClockRow = 1
	ClockCol = 40

	InputRow      = 10
	LabelCol      = 3
	EchoBaseCol   = 10
	EchoMaxOffset = 60 // echo columns span EchoBaseCol..EchoBaseCol+EchoMaxOffset

	ValueRow = 12
	BarCol   = 10

	HintRow = 14
	HintCol = 30

	FooterRow = 24
	FooterCol = 1
)

// MaxMagnitude is the longest bar Bar will draw.
const MaxMagnitude = 64

// RowCol returns the absolute cursor-positioning sequence ESC[row;colH.
func RowCol(row, col int) string {
	return "\x1b[" + strconv.Itoa(row) + ";" + strconv.Itoa(col) + "H"
}

// Layout draws the static parts of the screen.  The value label and
// exit hint only appear when a serial feed is shown.
func Layout(withSerial bool) string {
	var b strings.Builder
	b.WriteString(ClearDisplay)
	b.WriteString(RowCol(InputRow, LabelCol))
	b.WriteString("Input:")
	if withSerial {
		b.WriteString(RowCol(ValueRow, LabelCol))
		b.WriteString("Value:")
		b.WriteString(RowCol(HintRow, HintCol))
		b.WriteString("Type Ctrl+C to exit.")
	}
	return b.String()
}

// Clock renders t at the clock position in ctime layout.
func Clock(t time.Time) string {
	return RowCol(ClockRow, ClockCol) + ClearEOL + t.Format(time.ANSIC)
}

// Class is the rendering category of a raw key byte.
type Class int

const (
	Printable Class = iota
	Control
	Extended
)

func (c Class) String() string {
	switch c {
	case Printable:
		return "printable"
	case Control:
		return "control"
	default:
		return "extended"
	}
}

// Classify sorts a key byte the way the C locale does: 0x20..0x7e are
// printable, 0x00..0x1f and 0x7f are control codes, and everything
// above 0x7f is extended.
func Classify(b byte) Class {
	switch {
	case b >= 0x20 && b < 0x7f:
		return Printable
	case b < 0x20 || b == 0x7f:
		return Control
	default:
		return Extended
	}
}

// Key renders one echoed keystroke at offset columns past EchoBaseCol.
// Control codes appear in bold as their caret letter (0x03 → 'C');
// extended bytes appear as the graphic glyph.
func Key(offset int, b byte) string {
	var sb strings.Builder
	sb.WriteString(RowCol(InputRow, EchoBaseCol+offset))
	sb.WriteString(ClearEOL)
	switch Classify(b) {
	case Printable:
		sb.WriteByte(b)
	case Control:
		sb.WriteString(BoldOn)
		sb.WriteByte(b | 0x40)
		sb.WriteString(AttributesOff)
	default:
		sb.WriteString(GraphicCharSet)
		sb.WriteByte(Glyph)
		sb.WriteString(NormalCharSet)
	}
	return sb.String()
}

// Bar renders a run of n glyphs on the value row and erases whatever a
// longer previous bar left behind.  n is clamped to [1, MaxMagnitude].
func Bar(n int) string {
	if n < 1 {
		n = 1
	}
	if n > MaxMagnitude {
		n = MaxMagnitude
	}
	return RowCol(ValueRow, BarCol) + GraphicCharSet +
		strings.Repeat(string(Glyph), n) + NormalCharSet + ClearEOL
}

// Footer parks the cursor below the drawing area before exit.
func Footer() string {
	return RowCol(FooterRow, FooterCol)
}
