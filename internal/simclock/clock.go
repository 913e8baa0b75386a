// Package simclock is a discrete-event scheduler for cooperative processes.
//
// Every process runs on its own goroutine, but the clock hands a single baton
// around: a process only executes between receiving a wakeup and suspending
// again, so at any instant exactly one goroutine touches simulation state.
// Wakeups at the same virtual time are delivered in the order they were
// scheduled.
package simclock

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/shoyo-inokuchi/elevator-playground/internal/logger"
)

var Log = logger.GetLogger()

// ErrInterrupted is returned by Wait when another process interrupted it.
var ErrInterrupted = errors.New("wait interrupted")

type Clock struct {
	now    Time
	seq    uint64
	queue  wakeupQueue
	yield  chan struct{}
	active *Process
	procs  []*Process
}

// Process is a unit of work suspended and resumed by a Clock.
type Process struct {
	Name     string
	clock    *Clock
	resume   chan wakeReason
	pending  *wakeup
	finished bool
	err      error
}

func New() *Clock {
	c := &Clock{
		yield: make(chan struct{}),
	}
	heap.Init(&c.queue)
	return c
}

func (c *Clock) Now() Time {
	return c.now
}

// Pending returns the number of scheduled wakeups.
func (c *Clock) Pending() int {
	return c.queue.Len()
}

// Go registers fn as a new process. It first runs at the current virtual
// time, after every wakeup already scheduled for that time.
func (c *Clock) Go(name string, fn func(p *Process) error) *Process {
	p := &Process{
		Name:   name,
		clock:  c,
		resume: make(chan wakeReason),
	}
	c.procs = append(c.procs, p)

	go func() {
		defer func() {
			p.finished = true
			c.yield <- struct{}{}
		}()
		if reason := <-p.resume; reason == wakeKill {
			runtime.Goexit()
		}
		p.err = fn(p)
	}()

	c.schedule(p, c.now, wakeTimeout)
	return p
}

func (c *Clock) schedule(p *Process, at Time, reason wakeReason) {
	c.seq++
	w := &wakeup{at: at, seq: c.seq, proc: p, reason: reason}
	heap.Push(&c.queue, w)
	p.pending = w
}

func (c *Clock) cancel(p *Process) {
	if p.pending != nil {
		heap.Remove(&c.queue, p.pending.index)
		p.pending = nil
	}
}

// Interrupt resumes a suspended process at the current time with
// ErrInterrupted. It returns false if p is running or has finished.
func (c *Clock) Interrupt(p *Process) bool {
	if p.finished || p == c.active {
		return false
	}
	if p.pending != nil && p.pending.reason == wakeInterrupt {
		return true
	}
	c.cancel(p)
	c.schedule(p, c.now, wakeInterrupt)
	return true
}

// Run delivers wakeups in time order until the queue holds nothing at or
// before until, ctx is cancelled, or a process returns an error.
func (c *Clock) Run(ctx context.Context, until Time) error {
	for c.queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.queue[0].at > until {
			break
		}

		w := heap.Pop(&c.queue).(*wakeup)
		p := w.proc
		p.pending = nil
		c.now = w.at

		c.active = p
		p.resume <- w.reason
		<-c.yield
		c.active = nil

		if p.finished && p.err != nil {
			return fmt.Errorf("process %s at %v: %w", p.Name, c.now, p.err)
		}
	}
	if c.now < until {
		c.now = until
	}
	return nil
}

// Close terminates every unfinished process. It must not be called from
// inside a process.
func (c *Clock) Close() {
	for _, p := range c.procs {
		if p.finished {
			continue
		}
		c.cancel(p)
		p.resume <- wakeKill
		<-c.yield
	}
	Log.Debug().Msgf("Clock closed at %v with %d processes", c.now, len(c.procs))
}

func (p *Process) Now() Time {
	return p.clock.now
}

// Wait suspends the process for d. It returns nil once d has elapsed or
// ErrInterrupted if woken early; Now() tells how much of d passed.
func (p *Process) Wait(d Time) error {
	if d < 0 {
		panic(fmt.Sprintf("simclock: process %s scheduled a negative wait of %d", p.Name, d))
	}
	p.clock.schedule(p, p.clock.now+d, wakeTimeout)
	return p.suspend()
}

// Passivate suspends the process until another process interrupts it.
func (p *Process) Passivate() {
	_ = p.suspend()
}

func (p *Process) suspend() error {
	p.clock.yield <- struct{}{}
	switch <-p.resume {
	case wakeKill:
		runtime.Goexit()
	case wakeInterrupt:
		return ErrInterrupted
	}
	return nil
}

func (p *Process) Finished() bool {
	return p.finished
}
