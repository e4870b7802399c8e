// Package dashboard implements the posts browser TUI. A Controller holds the
// list/detail view state and the query subscriptions behind it; Model renders
// it with Bubble Tea.
package dashboard

import "context"

// View is the active dashboard view.
type View int

const (
	ViewList   View = iota // Post list.
	ViewDetail             // Single post.
)

// PostID identifies a post. Valid ids are positive.
type PostID int

// NoPost is the selection sentinel meaning the list view is active.
const NoPost PostID = 0

// Valid reports whether id refers to a post.
func (id PostID) Valid() bool {
	return id > 0
}

// PostSummary is a row in the post list.
type PostSummary struct {
	ID    PostID
	Title string
}

// Post is the full detail of a single post.
type Post struct {
	ID    PostID
	Title string
	Body  string
}

// --- Consumer-side interfaces ---

// PostSource loads posts from the backing API.
type PostSource interface {
	Posts(ctx context.Context) ([]PostSummary, error)
	Post(ctx context.Context, id PostID) (Post, error)
}

// --- tea.Msg types ---

// QueryUpdatedMsg signals that a watched query changed. The model re-reads
// results from the controller rather than carrying them in the message.
type QueryUpdatedMsg struct{}

// PrefetchDoneMsg carries the outcome of prefetching every listed post.
type PrefetchDoneMsg struct {
	Count int
	Err   error
}
