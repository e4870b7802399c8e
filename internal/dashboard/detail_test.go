package dashboard

import (
	"testing"

	"github.com/smileynet/querydemo/internal/query"
)

func TestRenderDetail_DisabledShowsLoading(t *testing.T) {
	// A disabled query never shows data, even if some is attached.
	r := query.Result{Status: query.StatusSuccess, Data: Post{ID: 1, Title: "cached"}, Enabled: false}

	got := renderDetail(r, 60, "*")

	if !containsPlainText(got, "Loading...") {
		t.Errorf("disabled detail should render loading, got:\n%s", got)
	}
	if containsPlainText(got, "cached") {
		t.Errorf("disabled detail should not render data, got:\n%s", got)
	}
}

func TestRenderDetail_Loading(t *testing.T) {
	r := query.Result{Status: query.StatusLoading, Enabled: true, IsFetching: true}

	got := renderDetail(r, 60, "*")

	if !containsPlainText(got, backLink) {
		t.Errorf("detail should always show the back link, got:\n%s", got)
	}
	if !containsPlainText(got, "* Loading...") {
		t.Errorf("loading detail should show the spinner, got:\n%s", got)
	}
}

func TestRenderDetail_Success(t *testing.T) {
	r := query.Result{
		Status:  query.StatusSuccess,
		Data:    Post{ID: 3, Title: "A title", Body: "Some body text"},
		Enabled: true,
	}

	got := renderDetail(r, 60, "*")

	for _, want := range []string{backLink, "A title", "Some body text"} {
		if !containsPlainText(got, want) {
			t.Errorf("detail missing %q, got:\n%s", want, got)
		}
	}
	if containsPlainText(got, backgroundUpdating) {
		t.Errorf("settled detail should not show %q", backgroundUpdating)
	}
}

func TestRenderDetail_BackgroundUpdating(t *testing.T) {
	r := query.Result{
		Status:     query.StatusSuccess,
		Data:       Post{ID: 3, Title: "A title", Body: "Some body text"},
		Enabled:    true,
		IsFetching: true,
	}

	got := renderDetail(r, 60, "*")

	if !containsPlainText(got, "A title") || !containsPlainText(got, backgroundUpdating) {
		t.Errorf("refreshing detail should show cached post and %q, got:\n%s", backgroundUpdating, got)
	}
}

func TestRenderDetail_Error(t *testing.T) {
	r := query.Result{Status: query.StatusError, Err: errSourceDown, Enabled: true}

	got := renderDetail(r, 60, "*")

	if !containsPlainText(got, "Error: source down") {
		t.Errorf("error detail should show the error, got:\n%s", got)
	}
}
