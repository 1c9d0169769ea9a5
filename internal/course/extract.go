package course

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extract parses a detail page and builds its Record. Errors name sourceURL.
func Extract(r io.Reader, sourceURL string) (*Record, error) {
	rows, err := parseRows(r)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", sourceURL, err)
	}

	rec, err := FromRows(rows, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", sourceURL, err)
	}
	return rec, nil
}

// parseRows reads the label/value rows of the first table on the page.
func parseRows(r io.Reader) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table on detail page", ErrShape)
	}

	var rows []Row
	var rowErr error
	table.Find("tr").EachWithBreak(func(i int, tr *goquery.Selection) bool {
		cells := tr.Find("td")
		if cells.Length() != 2 {
			rowErr = fmt.Errorf("%w: row %d has %d cells, want 2", ErrShape, i, cells.Length())
			return false
		}

		label := strings.TrimSpace(cells.Eq(0).Text())

		// Line breaks only carry meaning inside the additional info blob.
		br := " "
		if label == LabelAdditionalInfo {
			br = "\n"
		}

		rows = append(rows, Row{
			Label: label,
			Value: strings.TrimSpace(cellText(cells.Eq(1), br)),
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return rows, nil
}

// cellText flattens a cell to text. <br> elements become br; newlines in the markup
// itself are plain whitespace.
func cellText(sel *goquery.Selection, br string) string {
	var b strings.Builder
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "br":
			b.WriteString(br)
		case "#text":
			b.WriteString(strings.NewReplacer("\r", " ", "\n", " ").Replace(c.Text()))
		default:
			b.WriteString(cellText(c, br))
		}
	})
	return b.String()
}
