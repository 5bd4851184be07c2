package aio

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/limkeunhak/FlashX/internal/kaio"
)

// Target is the byte address space an engine reads and writes.
type Target interface {
	// Len returns the number of underlying files.
	Len() int

	// Locate maps [off, off+size) to a file index and the offset inside
	// that file. ok is false when the range cannot be served by one file.
	Locate(off int64, size int) (idx int, local int64, ok bool)

	// FD returns the descriptor of file idx for kernel submission.
	FD(idx int) int32

	// ReadAt and WriteAt perform blocking transfers on file idx.
	ReadAt(idx int, p []byte, off int64) (int, error)
	WriteAt(idx int, p []byte, off int64) (int, error)
}

// Engine is the asynchronous IO implementation.
type Engine struct {
	cfg    Config
	target Target
	opts   options
	logger *slog.Logger

	slots *slotPool
	ctx   *Context
	cb    Callback
	sync  *SyncIO

	batch  []pending
	err    error
	closed bool
}

var _ IO = (*Engine)(nil)

// New creates an engine over target. The callback slot pool is allocated
// here; the kernel queue is created by Init.
func New(target Target, cfg Config, opts ...Option) (*Engine, error) {
	if target == nil || target.Len() == 0 {
		return nil, invalidf("engine needs a target with at least one file")
	}
	cfg = cfg.withDefaults(target.Len())
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	e := &Engine{
		cfg:    cfg,
		target: target,
		opts:   o,
		logger: o.logger.With("component", "aio"),
		slots:  newSlotPool(cfg.Depth * cfg.SlotsPerDepth),
		cb:     o.callback,
		batch:  make([]pending, 0, cfg.Depth),
	}
	e.sync = &SyncIO{target: target, block: cfg.BlockSize, observer: o.observer}
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Init creates the kernel queue. Calling it again is a no-op.
func (e *Engine) Init() error {
	if e.closed {
		return ErrClosed
	}
	if e.ctx != nil {
		return nil
	}
	q, err := e.opts.newQueue(e.cfg.Backend, e.cfg.Depth)
	if err != nil {
		return fmt.Errorf("aio: create queue (backend %s, depth %d): %w", e.cfg.Backend, e.cfg.Depth, err)
	}
	e.ctx = newContext(q, e.dispatch, e.opts.observer)
	e.logger.Debug("engine initialized",
		"backend", e.cfg.Backend,
		"depth", e.cfg.Depth,
		"file_share", e.cfg.FileShare(),
		"slots", e.slots.Cap(),
	)
	return nil
}

// SupportAIO reports true.
func (e *Engine) SupportAIO() bool { return true }

// SetCallback replaces the completion callback.
func (e *Engine) SetCallback(cb Callback) { e.cb = cb }

// Callback returns the completion callback.
func (e *Engine) Callback() Callback { return e.cb }

// Err returns the sticky error recorded by a failed callback or submission.
func (e *Engine) Err() error { return e.err }

// Outstanding returns the number of requests in flight.
func (e *Engine) Outstanding() int {
	if e.ctx == nil {
		return 0
	}
	return e.ctx.Outstanding()
}

// RemainingCapacity returns how many requests can be submitted without
// waiting.
func (e *Engine) RemainingCapacity() int {
	if e.ctx == nil {
		return e.cfg.Depth
	}
	return e.ctx.RemainingCapacity()
}

// FreeSlots returns the number of unused callback slots.
func (e *Engine) FreeSlots() int { return e.slots.Free() }

// Slots returns the size of the callback slot pool.
func (e *Engine) Slots() int { return e.slots.Cap() }

// Access submits reqs in order and returns the number of bytes submitted.
// When the queue is full it harvests at least MinBatch completions first;
// callbacks run during those waits. Access returns once every request has
// been submitted, not completed.
//
// A misaligned request panics with *AlignmentError.
func (e *Engine) Access(reqs []Request) (int64, error) {
	if err := e.Init(); err != nil {
		return 0, err
	}
	if e.err != nil {
		return 0, e.err
	}

	var total int64
	for len(reqs) > 0 {
		capacity := e.ctx.RemainingCapacity()
		if capacity == 0 {
			e.opts.observer.OnBackpressure("queue_full")
			if _, err := e.ctx.WaitForCompletions(e.cfg.MinBatch); err != nil {
				return total, e.fail(err)
			}
			continue
		}

		n := min(capacity, len(reqs))
		batch := e.batch[:0]
		for i := range reqs[:n] {
			batch = append(batch, pending{slot: -1, req: e.build(&reqs[i])})
		}
		exhausted := false
		for i := range batch {
			id, err := e.slots.acquire()
			if err != nil {
				batch = batch[:i]
				exhausted = true
				break
			}
			batch[i].slot = id
			e.record(id, &reqs[i])
		}
		e.batch = batch[:0]

		accepted, err := e.ctx.submit(batch)
		for _, p := range batch[accepted:] {
			e.slots.release(p.slot)
		}
		for i := range reqs[:accepted] {
			total += int64(len(reqs[i].Buf))
		}
		if err != nil {
			return total, e.fail(err)
		}
		reqs = reqs[accepted:]

		if exhausted {
			if e.ctx.Outstanding() == 0 {
				return total, e.fail(ErrPoolExhausted)
			}
			e.logger.Error("no free callback slot, waiting for completions",
				"slots", e.slots.Cap(),
				"outstanding", e.ctx.Outstanding(),
			)
			e.opts.observer.OnBackpressure("slots_exhausted")
			if _, err := e.ctx.WaitForCompletions(1); err != nil {
				return total, e.fail(err)
			}
		}
	}
	return total, nil
}

// build validates r and translates it into a kernel request.
func (e *Engine) build(r *Request) kaio.Request {
	checkAligned(r.Buf, r.Offset, e.cfg.BlockSize)
	idx, local, ok := e.target.Locate(r.Offset, len(r.Buf))
	if !ok {
		panic(&AlignmentError{
			Offset:    r.Offset,
			Size:      len(r.Buf),
			BlockSize: e.cfg.BlockSize,
			Reason:    "request crosses a stripe boundary",
		})
	}
	return kaio.Request{Op: r.Method.op(), FD: e.target.FD(idx), Off: local, Buf: r.Buf}
}

// record stores r in slot id.
func (e *Engine) record(id int32, r *Request) {
	s := e.slots.get(id)
	s.buf = r.Buf
	s.offset = r.Offset
	s.method = r.Method
	s.initiator = r.Initiator
	s.priv = r.Priv
	s.submitted = time.Now()
}

// dispatch runs the callback for a harvested completion and frees its slot.
func (e *Engine) dispatch(id int32, c kaio.Completion) error {
	s := e.slots.get(id)
	req := Request{
		Buf:       s.buf,
		Offset:    s.offset,
		Method:    s.method,
		Initiator: s.initiator,
		Priv:      s.priv,
	}
	latency := time.Since(s.submitted)

	var ioErr error
	switch {
	case c.Result < 0:
		ioErr = &CompletionError{Method: s.method, Offset: s.offset, Size: len(s.buf), Result: c.Result, cause: c.Err()}
	case c.Result != int64(len(s.buf)):
		ioErr = &CompletionError{Method: s.method, Offset: s.offset, Size: len(s.buf), Result: c.Result, cause: io.ErrUnexpectedEOF}
	}
	e.opts.observer.OnComplete(s.method.String(), max(c.Result, 0), latency, ioErr)

	cb := e.cb
	if req.Initiator != nil && req.Initiator != IO(e) {
		if icb := req.Initiator.Callback(); icb != nil {
			cb = icb
		}
	}

	err := ioErr
	if cb != nil {
		err = cb.Invoke(&req, ioErr)
	}
	e.slots.release(id)

	if err != nil {
		e.setErr(err)
	}
	return err
}

// WaitForCompletions blocks until at least minCompletions requests have
// completed and returns the free queue capacity.
func (e *Engine) WaitForCompletions(minCompletions int) (int, error) {
	if e.ctx == nil {
		return e.cfg.Depth, nil
	}
	n, err := e.ctx.WaitForCompletions(minCompletions)
	if err != nil {
		return n, e.fail(err)
	}
	return n, nil
}

// AccessSync performs one blocking transfer, bypassing the queue.
func (e *Engine) AccessSync(buf []byte, off int64, method Method) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	return e.sync.AccessSync(buf, off, method)
}

// Cleanup drains every outstanding request, running their callbacks. It
// returns the sticky error, if any.
func (e *Engine) Cleanup() error {
	if e.ctx != nil {
		if err := e.ctx.Drain(); err != nil {
			e.setErr(err)
		}
	}
	return e.err
}

// Close drains the engine and releases the kernel queue.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	err := e.Cleanup()
	e.closed = true
	if e.ctx != nil {
		if derr := e.ctx.destroy(); derr != nil && err == nil {
			err = derr
		}
		e.ctx = nil
	}
	return err
}

func (e *Engine) setErr(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Engine) fail(err error) error {
	e.setErr(err)
	e.logger.Error("engine failed", "error", err, "outstanding", e.Outstanding())
	return e.err
}
