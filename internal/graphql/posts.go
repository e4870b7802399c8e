package graphql

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

const postsQuery = `query {
  posts {
    data {
      id
      title
    }
  }
}`

const postQuery = `query ($id: ID!) {
  post(id: $id) {
    id
    title
    body
  }
}`

// PostSummary is a post as listed.
type PostSummary struct {
	ID    int
	Title string
}

// Post is a single post with its body.
type Post struct {
	ID    int
	Title string
	Body  string
}

// Posts lists every post.
func (c *Client) Posts(ctx context.Context) ([]PostSummary, error) {
	data, err := c.Do(ctx, postsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	rows := data.Get("posts.data").Array()
	posts := make([]PostSummary, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, PostSummary{
			ID:    int(row.Get("id").Int()),
			Title: row.Get("title").String(),
		})
	}
	return posts, nil
}

// Post loads the post with id. It returns ErrPostNotFound when the API has
// none.
func (c *Client) Post(ctx context.Context, id int) (Post, error) {
	data, err := c.Do(ctx, postQuery, map[string]any{"id": strconv.Itoa(id)})
	if err != nil {
		return Post{}, fmt.Errorf("get post %d: %w", id, err)
	}

	p := data.Get("post")
	// A missing post comes back as null or as an object with a null id.
	if p.Type == gjson.Null || p.Get("id").Type == gjson.Null {
		return Post{}, fmt.Errorf("get post %d: %w", id, ErrPostNotFound)
	}
	return Post{
		ID:    int(p.Get("id").Int()),
		Title: p.Get("title").String(),
		Body:  p.Get("body").String(),
	}, nil
}
