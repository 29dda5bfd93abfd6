package score

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"git.lost.host/meutraa/ryth/internal/input"
)

// Scheduler owns a run: ticks and input events are handled in one
// goroutine so no judgement is ever applied halfway.
type Scheduler struct {
	Scorer Scorer
	Period time.Duration // Frame period
	Log    *zap.Logger

	// Frame is called after every tick, e.g. to draw the playfield
	Frame func()

	once sync.Once
	stop chan struct{}
	mu   sync.Mutex
}

func (s *Scheduler) log() *zap.Logger {
	if nil == s.Log {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Scheduler) done() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nil == s.stop {
		s.stop = make(chan struct{})
	}
	return s.stop
}

// Run starts the scorer and blocks until the run finishes, the player
// quits, ctx is cancelled or Stop is called. Only a finished run is left
// in the Finished state, every other exit tears the run down.
func (s *Scheduler) Run(ctx context.Context, events <-chan input.Event) error {
	if err := s.Scorer.Start(); nil != err {
		return err
	}

	period := s.Period
	if period <= 0 {
		period = time.Second / 240
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	stop := s.done()
	for {
		select {
		case <-ctx.Done():
			s.Scorer.Stop()
			return ctx.Err()
		case <-stop:
			s.Scorer.Stop()
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if s.handle(ev) {
				s.log().Debug("run abandoned")
				s.Scorer.Stop()
				return nil
			}
		case <-ticker.C:
			state := s.Scorer.Tick()
			if nil != s.Frame {
				s.Frame()
			}
			if state == Finished || state == Stopped {
				return nil
			}
		}
	}
}

// handle reports whether the player asked to leave
func (s *Scheduler) handle(ev input.Event) bool {
	switch ev.Action {
	case input.Lane:
		if ev.Pressed {
			s.Scorer.KeyDown(ev.Lane)
		} else {
			s.Scorer.KeyUp(ev.Lane)
		}
	case input.TogglePause:
		switch s.Scorer.State() {
		case Running:
			s.Scorer.Pause()
		case Paused:
			s.Scorer.Resume()
		}
	case input.Quit:
		// The first escape pauses, the second leaves
		if s.Scorer.State() == Running {
			s.Scorer.Pause()
			return false
		}
		return true
	case input.Restart:
		if err := s.Scorer.Restart(); nil != err {
			s.log().Warn("unable to restart", zap.Error(err))
		}
	}
	return false
}

// Stop ends Run. It is safe to call any number of times, before or
// after Run returns.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		close(s.done())
	})
	s.Scorer.Stop()
}
