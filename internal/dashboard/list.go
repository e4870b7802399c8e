package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/querydemo/internal/query"
)

// CursorMarker is the prefix shown on the selected post row.
const CursorMarker = "▸ "

// backgroundUpdating is shown under a view whose query is refreshing.
const backgroundUpdating = "Background Updating..."

// listState tracks the cursor in the post list. The posts themselves live
// in the query cache.
type listState struct {
	cursor int
}

// move shifts the cursor by delta, wrapping around n rows.
func (ls listState) move(delta, n int) listState {
	if n == 0 {
		ls.cursor = 0
		return ls
	}
	ls.cursor = ((ls.cursor+delta)%n + n) % n
	return ls
}

// clamp keeps the cursor inside n rows after the list changes.
func (ls listState) clamp(n int) listState {
	switch {
	case n == 0:
		ls.cursor = 0
	case ls.cursor >= n:
		ls.cursor = n - 1
	case ls.cursor < 0:
		ls.cursor = 0
	}
	return ls
}

// selected returns the post under the cursor, or NoPost.
func (ls listState) selected(posts []PostSummary) PostID {
	if ls.cursor < 0 || ls.cursor >= len(posts) {
		return NoPost
	}
	return posts[ls.cursor].ID
}

// listRows renders one line per post, the cursor row carrying CursorMarker.
// visited reports whether a post's detail is cached.
func listRows(posts []PostSummary, ls listState, visited func(PostID) bool) string {
	var b strings.Builder
	for i, p := range posts {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i == ls.cursor {
			b.WriteString(CursorMarker)
		} else {
			b.WriteString("  ")
		}
		if visited != nil && visited(p.ID) {
			b.WriteString(visitedText.Render(VisitedMarker + p.Title))
		} else {
			b.WriteString("  " + p.Title)
		}
	}
	return b.String()
}

// renderList renders the list view body around rows, the post rows already
// windowed to the space available. spinnerView is the current spinner frame.
func renderList(r query.Result, rows, spinnerView string, width int) string {
	var b strings.Builder
	b.WriteString(titleText.Render("Posts"))
	b.WriteString("\n\n")

	switch {
	case r.IsLoading():
		fmt.Fprintf(&b, "%s Loading...", spinnerView)
		return b.String()
	case r.Status == query.StatusError:
		b.WriteString(errorText.Width(width).Render(fmt.Sprintf("Error: %s", r.Err)))
		b.WriteString("\n\nPress r to retry")
		return b.String()
	}

	if posts, _ := query.DataAs[[]PostSummary](r); len(posts) == 0 {
		b.WriteString(mutedText.Render("No posts"))
	} else {
		b.WriteString(rows)
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().MaxWidth(width).Render(fetchingFooter(r)))
	return b.String()
}

// fetchingFooter reports a background refresh and, when the last refresh
// failed over cached data, a non-blocking notice.
func fetchingFooter(r query.Result) string {
	switch {
	case r.IsFetching:
		return mutedText.Render(backgroundUpdating)
	case r.Err != nil:
		return noticeText.Render(fmt.Sprintf("Refresh failed: %s (showing cached data)", r.Err))
	default:
		return " "
	}
}
