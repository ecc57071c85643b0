package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrLoopStarted is returned by a second call to Loop.Run.
var ErrLoopStarted = errors.New("renderer: loop already started")

// Host is the window surface the loop presents to.
type Host interface {
	ShouldClose() bool
	PollEvents()
	SwapBuffers()
}

// StepFunc advances and draws one frame; dt is seconds since the last frame.
type StepFunc func(dt float32) error

// Loop calls a step function once per displayed frame. Buffer swaps wait
// for vertical sync, so the display refresh rate paces the loop.
type Loop struct {
	host    Host
	step    StepFunc
	started atomic.Bool
	frames  atomic.Uint64
}

func NewLoop(host Host, step StepFunc) *Loop {
	return &Loop{host: host, step: step}
}

// Run presents frames until the host asks to close or ctx ends. A Loop runs
// at most once.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrLoopStarted
	}
	last := time.Now()
	for !l.host.ShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.host.PollEvents()

		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		if err := l.step(dt); err != nil {
			return fmt.Errorf("frame %d: %w", l.frames.Load(), err)
		}
		l.host.SwapBuffers()
		l.frames.Add(1)
	}
	return nil
}

// Started reports whether Run has been called.
func (l *Loop) Started() bool { return l.started.Load() }

// Frames is the number of frames presented so far.
func (l *Loop) Frames() uint64 { return l.frames.Load() }
