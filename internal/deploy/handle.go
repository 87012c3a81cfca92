package deploy

// Handle represents in-flight deployment work. Web deployments return an
// already-completed handle; game deployments complete theirs from a
// background goroutine.
type Handle struct {
	done chan struct{}
	err  error
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// complete records the terminal state. Must be called exactly once.
func (h *Handle) complete(err error) {
	h.err = err
	close(h.done)
}

// completedHandle returns a handle that already terminated with err.
func completedHandle(err error) *Handle {
	h := newHandle()
	h.complete(err)
	return h
}

// Wait blocks until the work terminated and returns its error, if any.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}
