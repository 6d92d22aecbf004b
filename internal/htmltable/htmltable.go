// Package htmltable extracts tables from the modem's status pages as
// plain text cells. Table positions on those pages are a fixed
// positional contract with the firmware, so callers address tables by
// index and filter rows themselves.
package htmltable

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse returns every table in the document, outermost first, as rows
// of trimmed cell texts.
func Parse(r io.Reader) ([][][]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	tables := [][][]string{}
	n := doc
	for {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			tables = append(tables, parseTable(n))
		} else if n.FirstChild != nil {
			n = n.FirstChild
			continue
		}

		if n.NextSibling != nil {
			n = n.NextSibling
		} else if n.Parent != doc && n.Parent.NextSibling != nil {
			n = n.Parent.NextSibling
		} else {
			break
		}
	}

	return tables, nil
}

// Rows selects table index from tables and returns its data rows,
// dropping rows shorter than minCells and rows for which isHeader
// reports true. An out-of-range index yields nil.
func Rows(tables [][][]string, index, minCells int, isHeader func(row []string) bool) [][]string {
	if index < 0 || index >= len(tables) {
		return nil
	}
	rows := [][]string{}
	for _, row := range tables[index] {
		if len(row) < minCells || isHeader(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func parseTable(tableNode *html.Node) (table [][]string) {
	table = [][]string{}

	var contentBuffer bytes.Buffer
	for bodyNode := tableNode.FirstChild; bodyNode != nil; bodyNode = bodyNode.NextSibling {
		if bodyNode.Type != html.ElementNode || (bodyNode.DataAtom != atom.Thead && bodyNode.DataAtom != atom.Tbody) {
			continue
		}
		for rowNode := bodyNode.FirstChild; rowNode != nil; rowNode = rowNode.NextSibling {
			if rowNode.Type != html.ElementNode || rowNode.DataAtom != atom.Tr {
				continue
			}
			row := []string{}
			for cellNode := rowNode.FirstChild; cellNode != nil; cellNode = cellNode.NextSibling {
				if cellNode.Type != html.ElementNode || (cellNode.DataAtom != atom.Th && cellNode.DataAtom != atom.Td) {
					continue
				}
				contentBuffer.Reset()
				collectText(cellNode, &contentBuffer)
				row = append(row, strings.TrimSpace(contentBuffer.String()))
			}
			table = append(table, row)
		}
	}
	return table
}

// collectText appends the text content below cellNode, iteratively to
// keep deep markup from recursing.
func collectText(cellNode *html.Node, buf *bytes.Buffer) {
	contentNode := cellNode.FirstChild
	for contentNode != nil {
		if contentNode.Type == html.TextNode {
			buf.WriteString(contentNode.Data)
		} else if contentNode.FirstChild != nil {
			contentNode = contentNode.FirstChild
			continue
		}

		if contentNode.NextSibling != nil {
			contentNode = contentNode.NextSibling
		} else if contentNode.Parent != cellNode {
			contentNode = contentNode.Parent.NextSibling
		} else {
			contentNode = nil
		}
	}
}
