package disasm

import (
	"fmt"
	"strings"
)

const (
	indentStep = 2
	// minCommentCol keeps short keys from pulling comments to the margin.
	minCommentCol = 24
)

// printer is the formatting context shared by one render. Column
// alignment state lives in row lists, not in the printer.
type printer struct {
	b          strings.Builder
	depth      int
	noComments bool
}

func (p *printer) in()  { p.depth++ }
func (p *printer) out() { p.depth-- }

func (p *printer) pad() string { return strings.Repeat(" ", p.depth*indentStep) }

func (p *printer) line(format string, args ...any) {
	p.b.WriteString(p.pad())
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) blank() { p.b.WriteByte('\n') }

// commented writes key followed by comment at column col, relative to the
// current indent.
func (p *printer) commented(key, comment string, col int) {
	p.b.WriteString(p.pad())
	p.b.WriteString(key)
	if comment != "" && !p.noComments {
		n := col - len(key)
		if n < 1 {
			n = 1
		}
		p.b.WriteString(strings.Repeat(" ", n))
		p.b.WriteString("// ")
		p.b.WriteString(comment)
	}
	p.b.WriteByte('\n')
}

func (p *printer) String() string { return p.b.String() }

// row is one line of a homogeneous list whose comments share a column.
type row struct {
	key     string
	comment string
	// depth is added to the printer indent for this row only.
	depth int
}

// rows measures every key first, then prints all rows against the widest.
func (p *printer) rows(rs []row) {
	col := commentColumn(rs)
	for _, r := range rs {
		p.depth += r.depth
		p.commented(r.key, r.comment, col-r.depth*indentStep)
		p.depth -= r.depth
	}
}

func commentColumn(rs []row) int {
	col := minCommentCol
	for _, r := range rs {
		if r.comment == "" {
			continue
		}
		if w := len(r.key) + r.depth*indentStep + 1; w > col {
			col = w
		}
	}
	return col
}
