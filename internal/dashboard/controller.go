package dashboard

import (
	"context"

	"github.com/smileynet/querydemo/internal/query"
)

// prefetchLimit bounds concurrent post fetches during PrefetchAll.
const prefetchLimit = 4

// PostsKey is the query key for the post list.
func PostsKey() query.Key {
	return query.NewKey("posts")
}

// PostKey is the query key for a single post.
func PostKey(id PostID) query.Key {
	return query.NewKey("post", int(id))
}

// Controller is the list/detail view state machine. Each view owns one query
// subscription while it is active: leaving the list closes its subscription,
// so coming back remounts it and revalidates the cached list in the
// background.
//
// Controller is not safe for concurrent use; confine it to the Bubble Tea
// update loop.
type Controller struct {
	client   *query.Client
	source   PostSource
	observer query.Observer

	selected PostID
	list     *query.Subscription
	detail   *query.Subscription
}

// NewController creates a controller in the list view and mounts the list
// query. observer is notified whenever a watched query changes.
func NewController(client *query.Client, source PostSource, observer query.Observer) *Controller {
	c := &Controller{
		client:   client,
		source:   source,
		observer: observer,
		selected: NoPost,
	}
	c.mountList()
	return c
}

// View returns the active view.
func (c *Controller) View() View {
	if c.selected.Valid() {
		return ViewDetail
	}
	return ViewList
}

// Selected returns the selected post, or NoPost in the list view.
func (c *Controller) Selected() PostID {
	return c.selected
}

// SelectList returns to the list view. The detail subscription stays
// mounted but disabled, so reopening the same post revalidates it.
func (c *Controller) SelectList() {
	c.selected = NoPost
	c.gateDetail()
	if c.list == nil {
		c.mountList()
	}
}

// SelectDetail opens the detail view for id. Invalid ids are ignored, as is
// selecting the post that is already open.
func (c *Controller) SelectDetail(id PostID) {
	if !id.Valid() || id == c.selected {
		return
	}
	c.selected = id

	if c.list != nil {
		c.list.Close()
		c.list = nil
	}
	if c.detail != nil && !c.detail.Key().Equal(PostKey(id)) {
		c.detail.Close()
		c.detail = nil
	}
	if c.detail == nil {
		c.detail = c.client.Watch(PostKey(id), c.fetchPost(id), c.observer,
			query.WithEnabled(false))
	}
	c.gateDetail()
}

// gateDetail enables the detail query only while a post is selected.
func (c *Controller) gateDetail() {
	if c.detail != nil {
		c.detail.SetEnabled(c.selected != NoPost)
	}
}

// Posts returns the list query result. It is idle while the detail view is
// active.
func (c *Controller) Posts() query.Result {
	if c.list == nil {
		return query.Result{Status: query.StatusIdle}
	}
	return c.list.Result()
}

// PostList returns the cached post list, if any.
func (c *Controller) PostList() []PostSummary {
	posts, _ := query.DataAs[[]PostSummary](c.Posts())
	return posts
}

// Post returns the detail query result. It is disabled in the list view.
func (c *Controller) Post() query.Result {
	if c.detail == nil {
		return query.Result{Status: query.StatusIdle}
	}
	return c.detail.Result()
}

// Visited reports whether the detail of id is already cached. It is a pure
// lookup and never fetches.
func (c *Controller) Visited(id PostID) bool {
	_, ok := c.client.GetQueryData(PostKey(id))
	return ok
}

// Refetch revalidates the active view's query.
func (c *Controller) Refetch() *query.Flight {
	if c.View() == ViewDetail {
		return c.detail.Refetch()
	}
	if c.list != nil {
		return c.list.Refetch()
	}
	return nil
}

// PrefetchRequests returns one request per listed post.
func (c *Controller) PrefetchRequests() []query.PrefetchRequest {
	posts := c.PostList()
	reqs := make([]query.PrefetchRequest, 0, len(posts))
	for _, p := range posts {
		reqs = append(reqs, query.PrefetchRequest{Key: PostKey(p.ID), Fetch: c.fetchPost(p.ID)})
	}
	return reqs
}

// Prefetch loads reqs into the cache. It only touches the query client, so
// it may run off the update loop.
func (c *Controller) Prefetch(ctx context.Context, reqs []query.PrefetchRequest) error {
	return c.client.PrefetchMany(ctx, prefetchLimit, reqs...)
}

// PrefetchAll prefetches the detail of every listed post.
func (c *Controller) PrefetchAll(ctx context.Context) error {
	return c.Prefetch(ctx, c.PrefetchRequests())
}

// Close closes every active subscription.
func (c *Controller) Close() {
	if c.list != nil {
		c.list.Close()
		c.list = nil
	}
	if c.detail != nil {
		c.detail.Close()
		c.detail = nil
	}
}

func (c *Controller) mountList() {
	c.list = c.client.Watch(PostsKey(), c.fetchPosts, c.observer)
}

func (c *Controller) fetchPosts(ctx context.Context) (any, error) {
	return c.source.Posts(ctx)
}

func (c *Controller) fetchPost(id PostID) query.FetchFunc {
	return func(ctx context.Context) (any, error) {
		return c.source.Post(ctx, id)
	}
}
