package snapshot

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/okian/motorgen/internal/domain/racing"
)

// grid is one HTML table flattened into a header line and body rows.
// Multi-row headers are joined with "_" per column.
type grid struct {
	header []string
	rows   [][]string
}

type cell struct {
	text    string
	header  bool
	rowspan int
	colspan int
}

// parseTables returns every table in doc as a grid. Nested tables are
// flattened independently of their parent.
func parseTables(doc *html.Node) []grid {
	var out []grid
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			if g, ok := flattenTable(n); ok {
				out = append(out, g)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// tableRows collects the <tr> elements owned by table, skipping rows of
// nested tables. inHead marks rows under <thead>.
func tableRows(table *html.Node) (rows []*html.Node, inHead []bool) {
	var walk func(n *html.Node, head bool)
	walk = func(n *html.Node, head bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				continue
			case atom.Thead:
				walk(c, true)
			case atom.Tr:
				rows = append(rows, c)
				inHead = append(inHead, head)
			default:
				walk(c, head)
			}
		}
	}
	walk(table, false)
	return rows, inHead
}

func rowCells(tr *html.Node) []cell {
	var cells []cell
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		cells = append(cells, cell{
			text:    nodeText(c),
			header:  c.DataAtom == atom.Th,
			rowspan: spanAttr(c, "rowspan"),
			colspan: spanAttr(c, "colspan"),
		})
	}
	return cells
}

func spanAttr(n *html.Node, key string) int {
	for _, a := range n.Attr {
		if a.Key == key {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 0 {
				return v
			}
		}
	}
	return 1
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// flattenTable expands rowspan/colspan into a rectangular grid. Leading
// rows that sit in <thead> or hold only <th> cells form the header.
func flattenTable(table *html.Node) (grid, bool) {
	trs, inHead := tableRows(table)
	if len(trs) == 0 {
		return grid{}, false
	}

	var (
		matrix  [][]string
		headers int
		inBody  bool
		pending = map[[2]int]string{} // (row, col) filled by an earlier rowspan
	)
	for r, tr := range trs {
		cells := rowCells(tr)
		allHeader := len(cells) > 0
		for _, c := range cells {
			allHeader = allHeader && c.header
		}
		if !inBody && (inHead[r] || allHeader) {
			headers++
		} else {
			inBody = true
		}

		var line []string
		col := 0
		place := func(text string) {
			for len(line) <= col {
				line = append(line, "")
			}
			line[col] = text
		}
		next := func() {
			for {
				if v, ok := pending[[2]int{r, col}]; ok {
					place(v)
					delete(pending, [2]int{r, col})
					col++
					continue
				}
				return
			}
		}
		for _, c := range cells {
			next()
			for i := 0; i < c.colspan; i++ {
				place(c.text)
				for k := 1; k < c.rowspan; k++ {
					pending[[2]int{r + k, col}] = c.text
				}
				col++
			}
		}
		next()
		matrix = append(matrix, line)
	}

	width := 0
	for _, line := range matrix {
		if len(line) > width {
			width = len(line)
		}
	}
	if width == 0 || headers == 0 {
		return grid{}, false
	}

	g := grid{header: make([]string, width)}
	for c := 0; c < width; c++ {
		var parts []string
		for r := 0; r < headers; r++ {
			if c >= len(matrix[r]) {
				continue
			}
			p := racing.Fold(matrix[r][c])
			if p == "" || strings.EqualFold(p, "nan") {
				continue
			}
			if len(parts) > 0 && parts[len(parts)-1] == p {
				continue
			}
			parts = append(parts, p)
		}
		g.header[c] = strings.Join(parts, "_")
	}
	for _, line := range matrix[headers:] {
		row := make([]string, width)
		copy(row, line)
		g.rows = append(g.rows, row)
	}
	return g, true
}
