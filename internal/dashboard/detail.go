package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/querydemo/internal/query"
)

// backLink is the first line of the detail view.
const backLink = "← Back (esc)"

// renderDetail renders the detail view body wrapped to width.
// A disabled or loading query renders a loading indicator, never stale or
// missing data.
func renderDetail(r query.Result, width int, spinnerView string) string {
	var b strings.Builder
	b.WriteString(mutedText.Render(backLink))
	b.WriteString("\n\n")

	switch {
	case r.IsLoading():
		fmt.Fprintf(&b, "%s Loading...", spinnerView)
		return b.String()
	case r.Status == query.StatusError:
		b.WriteString(errorText.Render(fmt.Sprintf("Error: %s", r.Err)))
		b.WriteString("\n\nPress r to retry")
		return b.String()
	}

	post, ok := query.DataAs[Post](r)
	if !ok {
		fmt.Fprintf(&b, "%s Loading...", spinnerView)
		return b.String()
	}

	b.WriteString(titleText.Width(width).Render(post.Title))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(post.Body))
	b.WriteString("\n\n")
	b.WriteString(fetchingFooter(r))
	return b.String()
}
