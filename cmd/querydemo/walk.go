package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/smileynet/querydemo/internal/dashboard"
	"github.com/smileynet/querydemo/internal/query"
)

// errWalkTimeout is returned when a query does not settle within the wait.
var errWalkTimeout = errors.New("walk: timed out waiting for query")

// run walks the list, opens each requested post and returns to the list,
// printing one timestamped line per step.
func (w *WalkCmd) run(ctx context.Context, out io.Writer, client *query.Client, source dashboard.PostSource) error {
	bridge := dashboard.NewBridge()
	ctrl := dashboard.NewController(client, source, bridge)
	defer ctrl.Close()

	p := walkPrinter{w: out}
	wait := func(what string, result func() query.Result) (query.Result, error) {
		return awaitSettled(ctx, bridge.Updates(), w.Wait, what, result)
	}

	r, err := wait("post list", ctrl.Posts)
	if err != nil {
		return err
	}
	if r.Status == query.StatusError {
		return fmt.Errorf("walk: list posts: %w", r.Err)
	}
	posts := ctrl.PostList()
	p.printf("list: %d posts", len(posts))

	if w.Prefetch {
		if err := ctrl.PrefetchAll(ctx); err != nil {
			p.printf("prefetch: %v", err)
		} else {
			p.printf("prefetch: %d posts cached", len(posts))
		}
	}

	for _, n := range w.Posts {
		id := dashboard.PostID(n)
		if !id.Valid() {
			p.printf("skip: %d is not a post id", n)
			continue
		}

		cached := ctrl.Visited(id)
		ctrl.SelectDetail(id)
		if cached {
			p.printf("open %d: cached, refreshing in background", id)
		} else {
			p.printf("open %d: loading", id)
		}

		r, err := wait(fmt.Sprintf("post %d", id), ctrl.Post)
		if err != nil {
			return err
		}
		if r.Status == query.StatusError {
			return fmt.Errorf("walk: post %d: %w", id, r.Err)
		}
		if post, ok := query.DataAs[dashboard.Post](r); ok {
			p.printf("post %d: %s", id, post.Title)
		}
		if r.Err != nil {
			p.printf("post %d: refresh failed, showing cached data: %v", id, r.Err)
		}

		ctrl.SelectList()
		p.printf("back: %s", visitedLine(ctrl, posts))
	}

	if _, err := wait("post list", ctrl.Posts); err != nil {
		return err
	}
	p.printf("cache: %s", strings.Join(client.Store().Keys(), " "))
	return nil
}

// awaitSettled blocks until result reports no fetch in progress. It re-checks
// on every bridge notification.
func awaitSettled(ctx context.Context, updates <-chan struct{}, timeout time.Duration, what string, result func() query.Result) (query.Result, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		r := result()
		if r.Enabled && !r.IsFetching && r.Status != query.StatusIdle && r.Status != query.StatusLoading {
			return r, nil
		}
		select {
		case <-updates:
		case <-timer.C:
			return r, fmt.Errorf("%w: %s", errWalkTimeout, what)
		case <-ctx.Done():
			return r, ctx.Err()
		}
	}
}

// visitedLine lists the visited posts, marking them like the browser does.
func visitedLine(ctrl *dashboard.Controller, posts []dashboard.PostSummary) string {
	var ids []string
	for _, p := range posts {
		if ctrl.Visited(p.ID) {
			ids = append(ids, fmt.Sprintf("%s%d", dashboard.VisitedMarker, p.ID))
		}
	}
	if len(ids) == 0 {
		return "no posts visited"
	}
	return "visited " + strings.Join(ids, " ")
}

// walkPrinter writes timestamped walk lines.
type walkPrinter struct {
	w io.Writer
}

func (p walkPrinter) printf(format string, args ...any) {
	ts := time.Now().Format("15:04:05")
	_, _ = fmt.Fprintf(p.w, "[%s] %s\n", ts, fmt.Sprintf(format, args...))
}
