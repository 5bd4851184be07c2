package aio

import (
	"errors"
	"fmt"

	"github.com/limkeunhak/FlashX/internal/kaio"
	"github.com/limkeunhak/FlashX/metrics"
)

// Context wraps a kernel queue of fixed depth. It tracks the requests in
// flight and routes every harvested completion to the slot that issued it.
//
// Outstanding() + RemainingCapacity() == Depth() holds between calls.
type Context struct {
	q           kaio.Queue
	depth       int
	outstanding int

	// Submitted requests carry a token; tokens map back to slots.
	nextToken uint64
	tokens    map[uint64]int32

	dispatch func(id int32, c kaio.Completion) error
	scratch  []kaio.Completion
	ids      []int32
	reqs     []kaio.Request
	observer metrics.Observer
}

// pending is a built request waiting for submission.
type pending struct {
	slot int32
	req  kaio.Request
}

func newContext(q kaio.Queue, dispatch func(int32, kaio.Completion) error, observer metrics.Observer) *Context {
	depth := q.Cap()
	return &Context{
		q:        q,
		depth:    depth,
		tokens:   make(map[uint64]int32, depth),
		dispatch: dispatch,
		scratch:  make([]kaio.Completion, 0, depth),
		ids:      make([]int32, 0, depth),
		reqs:     make([]kaio.Request, 0, depth),
		observer: metrics.OrNoop(observer),
	}
}

// Depth returns the queue depth.
func (c *Context) Depth() int { return c.depth }

// Outstanding returns the number of submitted but unharvested requests.
func (c *Context) Outstanding() int { return c.outstanding }

// RemainingCapacity returns how many more requests may be submitted.
func (c *Context) RemainingCapacity() int { return c.depth - c.outstanding }

// submit hands batch to the kernel. The caller guarantees
// len(batch) <= RemainingCapacity(). On a partial submission the accepted
// prefix stays in flight and the returned *SubmitError reports how many were
// accepted.
func (c *Context) submit(batch []pending) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	if len(batch) > c.RemainingCapacity() {
		panic(fmt.Sprintf("aio: batch of %d exceeds remaining capacity %d", len(batch), c.RemainingCapacity()))
	}

	reqs := c.reqs[:0]
	for i := range batch {
		c.nextToken++
		batch[i].req.ID = c.nextToken
		reqs = append(reqs, batch[i].req)
	}
	c.reqs = reqs[:0]

	n, err := c.q.Submit(reqs)
	var bytes int64
	for i := 0; i < n; i++ {
		c.tokens[reqs[i].ID] = batch[i].slot
		bytes += int64(len(reqs[i].Buf))
	}
	c.outstanding += n
	if n > 0 {
		c.observer.OnSubmit(n, bytes)
	}
	c.observer.OnQueueDepth("aio", c.outstanding)

	if err != nil || n != len(reqs) {
		return n, &SubmitError{Requested: len(reqs), Accepted: n, cause: err}
	}
	return n, nil
}

// WaitForCompletions blocks until at least minCompletions requests (capped
// to the number outstanding, and at least one) have completed, dispatches
// every harvested completion and returns the remaining capacity. With
// nothing outstanding it returns immediately.
//
// Every harvested completion is dispatched even when an earlier one fails;
// the first dispatch error is returned.
func (c *Context) WaitForCompletions(minCompletions int) (int, error) {
	dispatchErr, waitErr := c.wait(minCompletions)
	if waitErr != nil {
		return c.RemainingCapacity(), waitErr
	}
	return c.RemainingCapacity(), dispatchErr
}

func (c *Context) wait(minCompletions int) (dispatchErr, waitErr error) {
	if c.outstanding == 0 {
		return nil, nil
	}
	minCompletions = max(1, min(minCompletions, c.outstanding))

	// Callbacks may submit and wait again, so the scratch slices are
	// detached while they are iterated.
	cs, err := c.q.Wait(c.scratch[:0], minCompletions)
	ids := c.ids[:0]
	c.scratch, c.ids = nil, nil
	defer func() {
		if c.scratch == nil {
			c.scratch, c.ids = cs[:0], ids[:0]
		}
	}()

	// Account for the whole harvest before any callback runs so that
	// Outstanding matches what the kernel still holds.
	for _, comp := range cs {
		id, ok := c.tokens[comp.ID]
		if !ok {
			panic(fmt.Sprintf("aio: completion for unknown token %d", comp.ID))
		}
		delete(c.tokens, comp.ID)
		ids = append(ids, id)
	}
	c.outstanding -= len(cs)
	c.observer.OnQueueDepth("aio", c.outstanding)

	for i, comp := range cs {
		if err := c.dispatch(ids[i], comp); err != nil && dispatchErr == nil {
			dispatchErr = err
		}
	}

	if err != nil {
		return dispatchErr, fmt.Errorf("aio: wait for completions: %w", err)
	}
	return dispatchErr, nil
}

// Drain waits until nothing is outstanding. Dispatch errors do not stop it;
// the first one is returned. A failing kernel wait ends the drain early.
func (c *Context) Drain() error {
	var first error
	for c.outstanding > 0 {
		dispatchErr, waitErr := c.wait(c.outstanding)
		if first == nil {
			first = dispatchErr
		}
		if waitErr != nil {
			return errors.Join(first, waitErr)
		}
	}
	return first
}

// destroy releases the kernel queue.
func (c *Context) destroy() error {
	return c.q.Destroy()
}
