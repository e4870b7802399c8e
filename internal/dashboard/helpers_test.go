package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/querydemo/internal/query"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// execBatch executes a tea.Cmd, handling both single commands and batch
// commands. It returns all resulting messages. Spinner ticks and commands
// that block on query updates are skipped.
func execBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			if c != nil {
				result := c()
				// Skip spinner ticks to avoid recursion.
				if _, isTick := result.(spinner.TickMsg); !isTick {
					msgs = append(msgs, result)
				}
			}
		}
		return msgs
	}
	return []tea.Msg{msg}
}

var errSourceDown = errors.New("source down")

// fakeSource serves canned posts. When gate is non-nil, Post blocks until a
// value is sent on it.
type fakeSource struct {
	mu        sync.Mutex
	posts     []Post
	postsErr  error
	postErr   error
	listCalls int
	postCalls map[PostID]int
	gate      chan struct{}
}

func newFakeSource(n int) *fakeSource {
	src := &fakeSource{postCalls: make(map[PostID]int)}
	for i := 1; i <= n; i++ {
		src.posts = append(src.posts, Post{
			ID:    PostID(i),
			Title: fmt.Sprintf("Post title %d", i),
			Body:  fmt.Sprintf("Body of post %d", i),
		})
	}
	return src
}

func (s *fakeSource) Posts(ctx context.Context) ([]PostSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.postsErr != nil {
		return nil, s.postsErr
	}
	out := make([]PostSummary, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, PostSummary{ID: p.ID, Title: p.Title})
	}
	return out, nil
}

func (s *fakeSource) Post(ctx context.Context, id PostID) (Post, error) {
	s.mu.Lock()
	s.postCalls[id]++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Post{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.postErr != nil {
		return Post{}, s.postErr
	}
	for _, p := range s.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return Post{}, fmt.Errorf("post %d not found", id)
}

func (s *fakeSource) calls(id PostID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postCalls[id]
}

func (s *fakeSource) lists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *fakeSource) setGate(ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = ch
}

// newTestClient returns a query client without retries or idle eviction.
func newTestClient(t *testing.T) *query.Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := query.DefaultConfig()
	cfg.GCTime = 0
	return query.NewClient(ctx, query.WithConfig(cfg))
}

// newTestController returns a controller over src whose list has loaded.
func newTestController(t *testing.T, src PostSource) (*Controller, *query.Client) {
	t.Helper()
	client := newTestClient(t)
	ctrl := NewController(client, src, nil)
	t.Cleanup(ctrl.Close)
	waitFor(t, "post list", func() bool {
		return ctrl.Posts().Status != query.StatusLoading
	})
	return ctrl, client
}

// waitFor polls cond until it holds, failing the test after two seconds.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
