package lowstock

import (
	"html"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stockpilot/stockpilot/internal/mailer"
)

// buildReport renders the low-stock report grouped by product. Each row
// shows SKU, current quantity, threshold and historical order count.
func buildReport(entries []Entry, recipients []string) mailer.Message {
	byProduct := make(map[string][]Entry)
	for _, e := range entries {
		byProduct[e.ProductTitle] = append(byProduct[e.ProductTitle], e)
	}
	titles := make([]string, 0, len(byProduct))
	for title := range byProduct {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	p := message.NewPrinter(language.English)

	var b strings.Builder
	var text strings.Builder
	b.WriteString("<h2>Low stock report</h2>")
	for _, title := range titles {
		rows := byProduct[title]
		sort.Slice(rows, func(i, j int) bool { return rows[i].SKU < rows[j].SKU })

		b.WriteString("<h3>" + html.EscapeString(title) + "</h3>")
		b.WriteString("<table border=\"1\" cellpadding=\"4\"><tr><th>SKU</th><th>Quantity</th><th>Threshold</th><th>Orders to date</th></tr>")
		text.WriteString(title + "\n")
		for _, row := range rows {
			b.WriteString("<tr><td>" + html.EscapeString(row.SKU) + "</td>")
			b.WriteString("<td>" + p.Sprintf("%d", row.Quantity) + "</td>")
			b.WriteString("<td>" + p.Sprintf("%d", row.Threshold) + "</td>")
			b.WriteString("<td>" + p.Sprintf("%d", row.OrderCount) + "</td></tr>")
			text.WriteString(p.Sprintf("  %s: %d on hand (threshold %d, %d orders to date)\n",
				row.SKU, row.Quantity, row.Threshold, row.OrderCount))
		}
		b.WriteString("</table>")
	}

	return mailer.Message{
		To:      recipients,
		Subject: p.Sprintf("Low stock: %d SKU(s) below threshold", len(entries)),
		HTML:    b.String(),
		Text:    text.String(),
	}
}
