package query

import "context"

// Flight is a fetch in progress for one key. Every caller that asks for the
// key while the flight is outstanding receives the same Flight.
type Flight struct {
	done chan struct{}
	data any
	err  error
}

func newFlight() *Flight {
	return &Flight{done: make(chan struct{})}
}

// Done is closed once the result has been written to the store.
func (f *Flight) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the flight completes or ctx is done.
func (f *Flight) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.data, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Flight) finish(data any, err error) {
	f.data = data
	f.err = err
	close(f.done)
}
