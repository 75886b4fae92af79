// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package curlmux

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/gophercurl/curlmux/config"
	"github.com/gophercurl/curlmux/executor"
	"github.com/gophercurl/curlmux/reactor"
	"github.com/gophercurl/curlmux/request"
	"github.com/gophercurl/curlmux/status"
	"github.com/gophercurl/curlmux/timesup"
	"github.com/gophercurl/curlmux/transfer"
)

// Reserved reactor identifiers. Transfer-completion notifications use
// ids offset by tokenBase so they never collide with these.
const (
	idWakeup  uintptr = 1
	idTimer   uintptr = 2
	tokenBase uintptr = 1 << 16
)

// An EventLoop dispatches request.Requests submitted with Submit,
// running each one's HTTP round trip on its own goroutine and enforcing
// its Timesup deadline independently of that round trip's own progress.
//
// An EventLoop plays the role a libcurl multi handle driven by a libuv
// loop plays in the library this package's design is grounded on: one
// long-lived owner of a bounded pool of connections and a single
// deadline timer, fed by many independent callers of Submit.
type EventLoop struct {
	cfg    config.Config
	pool   *transfer.Pool
	engine *transfer.Engine
	react  *reactor.ChanReactor
	ctxs   *reactor.ContextPool

	// Logger receives diagnostic output. It defaults to NopLogger and
	// may be set once, before the first Submit, by a caller that wants
	// visibility into reactor errors and the stop transition. The start
	// message is logged by New before the caller can replace Logger, so
	// it always goes to NopLogger.
	Logger Logger

	// pendingMu additionally guards stopping and the activeCount
	// increment on Submit's accept path, so a Submit that observes
	// stopping == false is guaranteed to have its increment visible to
	// any Stop call that later finds stopping == true; see Submit and
	// Stop.
	pendingMu sync.Mutex
	pending   *queue.Queue
	stopping  atomic.Bool

	nextToken    int64
	executors    map[int64]*executor.Executor
	transferCtx  map[int64]*reactor.Context
	tokenTimesup map[int64]timesup.Token
	timesupIdx   *timesup.Index

	outcomeMu sync.Mutex
	outcomes  map[int64]transfer.Outcome

	activeCount atomic.Int64
	drainOnce   sync.Once
	drainDoneCh chan struct{}

	timesupTimer *time.Timer
	running      atomic.Bool
	quitCh       chan struct{}
	doneCh       chan struct{}
}

// New constructs and starts an EventLoop with the given configuration.
func New(cfg config.Config) (*EventLoop, error) {
	maxConn := cfg.MaxConnections
	reserve := cfg.ReserveConnections
	poolMax := maxConn
	if poolMax < reserve {
		poolMax = reserve
	}

	el := &EventLoop{
		cfg:          cfg,
		pool:         transfer.NewPool(reserve, poolMax),
		engine:       transfer.NewEngine(maxConn),
		react:        reactor.NewChanReactor(256),
		ctxs:         reactor.NewContextPool(256),
		Logger:       NopLogger{},
		pending:      queue.New(),
		executors:    make(map[int64]*executor.Executor),
		transferCtx:  make(map[int64]*reactor.Context),
		tokenTimesup: make(map[int64]timesup.Token),
		timesupIdx:   timesup.New(),
		outcomes:     make(map[int64]transfer.Outcome),
		drainDoneCh:  make(chan struct{}),
		quitCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	el.timesupTimer = time.AfterFunc(time.Hour, func() { el.react.Notify(idTimer) })
	el.timesupTimer.Stop()

	el.running.Store(true)
	el.Logger.Info("event loop started", "reserve", reserve, "max", maxConn)
	go el.forwardOutcomes()
	go el.run()
	return el, nil
}

// Submit prepares req on the calling goroutine — building its
// *http.Request and acquiring a transfer.Handle, which is where TLS,
// proxy, client-certificate, and mime-body work happens — then hands the
// prepared Executor to the event loop for dispatch. Submit returns true
// once req is either queued or has already been finalized (a Prepare
// failure completes req.OnComplete synchronously, on the caller's own
// goroutine, with status.SendError). It returns false, without ever
// invoking req.OnComplete, only if the EventLoop is not accepting new
// work: doing Prepare's work off the loop goroutine is what lets many
// concurrent Submit calls configure their TLS/proxy/mime state in
// parallel instead of serializing on the single loop goroutine.
func (el *EventLoop) Submit(req *request.Request) bool {
	if !el.running.Load() {
		return false
	}
	el.cfg.ApplyDefaults(req)
	for _, o := range el.cfg.HostOverrides {
		req.HostOverrides = append(req.HostOverrides, o)
	}

	ex := executor.New(req)
	if err := ex.Prepare(el.pool); err != nil {
		ex.FinalizeNormal(&request.Response{Status: status.SendError})
		return true
	}

	el.pendingMu.Lock()
	if el.stopping.Load() {
		el.pendingMu.Unlock()
		ex.Abandon()
		return false
	}
	el.activeCount.Add(1)
	el.pending.Add(ex)
	el.pendingMu.Unlock()

	if err := el.react.Notify(idWakeup); err != nil {
		if el.activeCount.Add(-1) == 0 {
			el.checkDrained()
		}
		return false
	}
	return true
}

// ActiveRequestCount returns the number of requests either queued or
// currently being performed.
func (el *EventLoop) ActiveRequestCount() int64 {
	return el.activeCount.Load()
}

// IsRunning reports whether the EventLoop's goroutine is still
// processing events.
func (el *EventLoop) IsRunning() bool {
	return el.running.Load()
}

// Stop rejects any Submit received after it is called, then blocks until
// every request already accepted — queued or dispatched to the transfer
// engine — has finalized and had its OnComplete invoked exactly once,
// only then tearing down the timesup timer and the reactor and waiting
// for the loop goroutine to exit. Stop is safe to call more than once
// and from more than one goroutine.
func (el *EventLoop) Stop() {
	el.pendingMu.Lock()
	first := !el.stopping.Load()
	el.stopping.Store(true)
	drained := el.activeCount.Load() == 0
	el.pendingMu.Unlock()

	if first && drained {
		el.drainOnce.Do(func() { close(el.drainDoneCh) })
	}
	<-el.drainDoneCh

	if first {
		close(el.quitCh)
	}
	el.timesupTimer.Stop()
	el.react.Close()
	if el.running.Load() {
		<-el.doneCh
	}
	el.Logger.Info("event loop stopped")
}

// Close is equivalent to Stop, returning nil, to satisfy io.Closer for
// callers that manage an EventLoop alongside other closeable resources.
func (el *EventLoop) Close() error {
	el.Stop()
	return nil
}

// checkDrained closes drainDoneCh, exactly once, the first time it
// observes both that Stop has been called and that no request remains
// active. Once stopping is true, activeCount only ever decreases (Submit
// refuses to increment it further), so any call that observes count == 0
// here is observing a state that will not un-happen.
func (el *EventLoop) checkDrained() {
	if el.stopping.Load() && el.activeCount.Load() == 0 {
		el.drainOnce.Do(func() { close(el.drainDoneCh) })
	}
}

// forwardOutcomes relays completed transfers from the engine to the
// reactor for as long as the loop is running. engine.Outcomes' channel
// is never closed, since the Engine outlives no particular caller, so
// this goroutine instead exits via quitCh once Stop has drained every
// accepted request and torn the loop down; without that select it
// would range on the channel forever, even after a clean shutdown with
// no outcomes left to relay.
func (el *EventLoop) forwardOutcomes() {
	for {
		select {
		case out := <-el.engine.Outcomes():
			el.outcomeMu.Lock()
			el.outcomes[out.Token] = out
			el.outcomeMu.Unlock()
			if err := el.react.Notify(tokenBase + uintptr(out.Token)); err != nil {
				return
			}
		case <-el.quitCh:
			return
		}
	}
}

func (el *EventLoop) run() {
	defer close(el.doneCh)
	defer el.running.Store(false)

	events := make([]reactor.Event, 32)
	for {
		n, err := el.react.Wait(events)
		if err != nil {
			if errors.Is(err, reactor.ErrClosed) {
				return
			}
			el.Logger.Warn("reactor wait error", "err", err)
			continue
		}
		for _, ev := range events[:n] {
			switch ev.ID {
			case idWakeup:
				el.drainPending()
			case idTimer:
				el.sweepTimesup()
			default:
				el.handleOutcome(int64(ev.UserData))
			}
		}
		el.rearmTimer()
	}
}

func (el *EventLoop) drainPending() {
	el.pendingMu.Lock()
	grabbed := make([]*executor.Executor, 0, el.pending.Length())
	for el.pending.Length() > 0 {
		grabbed = append(grabbed, el.pending.Peek().(*executor.Executor))
		el.pending.Remove()
	}
	el.pendingMu.Unlock()

	for _, ex := range grabbed {
		el.dispatch(ex)
	}
}

// dispatch hands an already-prepared Executor to the transfer engine. It
// registers a reactor.Context for the transfer the same way the library
// this design is grounded on registers a socket context when a handle is
// added to the multi handle: the context's cancellation doubles as the
// transfer's abort mechanism, and its two-phase close (Cancel, then
// Await) is completed in finalize once the transfer's outcome arrives.
func (el *EventLoop) dispatch(ex *executor.Executor) {
	token := atomic.AddInt64(&el.nextToken, 1)
	req := ex.Request()
	el.executors[token] = ex
	ex.SetStart(time.Now())

	if req.Timesup > 0 {
		el.tokenTimesup[token] = el.timesupIdx.Insert(time.Now().Add(req.Timesup), token)
	}

	rc := el.ctxs.Acquire(uintptr(token))
	el.transferCtx[token] = rc
	el.react.Register(tokenBase+uintptr(token), uintptr(token))

	ctx := rc.Ctx()
	cancel := func() {}
	if req.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
	}

	el.engine.Add(ctx, transfer.Job{
		Token: token,
		Run: func(ctx context.Context) (*request.Response, error) {
			defer cancel()
			return ex.PerformSync(ctx), nil
		},
	})
}

func (el *EventLoop) sweepTimesup() {
	el.timesupIdx.ExpireDue(time.Now(), func(v interface{}) {
		token := v.(int64)
		delete(el.tokenTimesup, token)
		if ex, ok := el.executors[token]; ok {
			ex.FinalizeTimesup()
		}
	})
}

func (el *EventLoop) handleOutcome(token int64) {
	el.outcomeMu.Lock()
	out, ok := el.outcomes[token]
	delete(el.outcomes, token)
	el.outcomeMu.Unlock()
	if !ok {
		return
	}
	el.finalize(token, out.Response)
}

func (el *EventLoop) finalize(token int64, resp *request.Response) {
	if resp == nil {
		resp = &request.Response{Status: status.SendError}
	}
	if tok, ok := el.tokenTimesup[token]; ok {
		el.timesupIdx.Remove(tok)
		delete(el.tokenTimesup, token)
	}
	if rc, ok := el.transferCtx[token]; ok {
		delete(el.transferCtx, token)
		el.react.Deregister(tokenBase + uintptr(token))
		// The transfer's own goroutine has already returned by the time
		// its Outcome reaches here, so MarkDone is called on its behalf
		// rather than from inside the Job closure, where it would never
		// run when the transfer.Engine gives up waiting for a concurrency
		// slot because ctx ended (that path posts an Outcome without
		// calling Run) and Await would block forever.
		rc.Cancel()
		rc.MarkDone()
		rc.Await()
		el.ctxs.Release(rc)
	}
	ex, ok := el.executors[token]
	delete(el.executors, token)
	if !ok {
		return
	}
	ex.FinalizeNormal(resp)
	if el.activeCount.Add(-1) == 0 {
		el.checkDrained()
	}
}

func (el *EventLoop) rearmTimer() {
	el.timesupTimer.Stop()
	deadline, _, ok := el.timesupIdx.Earliest()
	if !ok {
		return
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	el.timesupTimer.Reset(d)
}
