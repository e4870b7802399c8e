package query

import "errors"

// ErrFetchPanicked is wrapped by the error stored for a fetch function that panicked.
var ErrFetchPanicked = errors.New("query: fetch function panicked")
