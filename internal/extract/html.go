package extract

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	panelXPath = fmt.Sprintf(`//*[@id='%s']`, ResultPanelID)
	cardXPath  = `.//*[contains(concat(' ', normalize-space(@class), ' '), ' TVSHotelResultItem ') or contains(concat(' ', normalize-space(@class), ' '), ' TVResultListViewItem ')]`
)

// blockAtoms start a new line when flattening markup to text.
var blockAtoms = map[atom.Atom]bool{
	atom.Div: true, atom.P: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.Br: true, atom.Tr: true, atom.Td: true, atom.Th: true, atom.Table: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
}

// CardsFromHTML reads cards out of a saved result page. Cards are marked
// unmeasured since static markup carries no layout.
func CardsFromHTML(r io.Reader, maxText int) ([]Card, error) {
	doc, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result markup: %w", err)
	}
	panel := htmlquery.FindOne(doc, panelXPath)
	if panel == nil || panel.FirstChild == nil {
		return []Card{}, nil
	}
	if maxText <= 0 {
		maxText = DefaultOptions().MaxTextLength
	}

	nodes := htmlquery.Find(panel, cardXPath)
	cards := make([]Card, 0, len(nodes))
	for _, n := range nodes {
		if hidden(n) {
			continue
		}
		text := flatten(n)
		if utf8.RuneCountInString(text) > maxText {
			text = string([]rune(text)[:maxText])
		}
		cards = append(cards, Card{
			Class:      htmlquery.SelectAttr(n, "class"),
			Text:       text,
			Unmeasured: true,
		})
	}
	return cards, nil
}

func hidden(n *html.Node) bool {
	style := strings.ReplaceAll(strings.ToLower(htmlquery.SelectAttr(n, "style")), " ", "")
	return strings.Contains(style, "display:none")
}

// flatten renders the visible text of n with one line per block element.
func flatten(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		block := n.Type == html.ElementNode && blockAtoms[n.DataAtom]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	walk(n)

	out := make([]string, 0)
	for _, l := range strings.Split(b.String(), "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
