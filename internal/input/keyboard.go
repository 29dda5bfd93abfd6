package input

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eiannone/keyboard"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("keyboard closed")

// Keyboard reads the controlling terminal. A terminal only reports key
// presses and their auto-repeat, so a lane counts as released once no
// event for it has arrived within Release.
type Keyboard struct {
	Keymap  Keymap
	Release time.Duration
	Log     *zap.Logger

	keys      <-chan keyboard.KeyEvent
	running   sync.WaitGroup
	closeOnce sync.Once
}

func OpenKeyboard(buffer int) (*Keyboard, error) {
	keys, err := keyboard.GetKeys(buffer)
	if nil != err {
		return nil, err
	}
	return &Keyboard{keys: keys, Release: 150 * time.Millisecond}, nil
}

func (k *Keyboard) log() *zap.Logger {
	if nil == k.Log {
		return zap.NewNop()
	}
	return k.Log
}

// ReadKey blocks for the next raw key, used outside of play for menus
func (k *Keyboard) ReadKey(ctx context.Context) (rune, keyboard.Key, error) {
	select {
	case ev, ok := <-k.keys:
		if !ok {
			return 0, 0, ErrClosed
		}
		return ev.Rune, ev.Key, ev.Err
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	}
}

func (k *Keyboard) Start(ctx context.Context, events chan<- Event) error {
	if nil == k.keys {
		return ErrClosed
	}
	k.running.Add(1)
	go k.run(ctx, events)
	return nil
}

// Wait blocks until the goroutine of a cancelled Start stops reading keys
func (k *Keyboard) Wait() {
	k.running.Wait()
}

func (k *Keyboard) run(ctx context.Context, events chan<- Event) {
	defer k.running.Done()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	lastSeen := make([]time.Time, len(k.Keymap))
	held := make([]bool, len(k.Keymap))

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-k.keys:
			if !ok {
				return
			}
			if nil != ev.Err {
				k.log().Warn("unable to read keyboard input", zap.Error(ev.Err))
				continue
			}
			now := time.Now()
			if e, ok := k.translate(ev, now); ok {
				if e.Action == Lane {
					lastSeen[e.Lane] = now
					if held[e.Lane] {
						// Auto-repeat of a held key
						continue
					}
					held[e.Lane] = true
				}
				if !send(ctx, events, e) {
					return
				}
			}
		case now := <-ticker.C:
			for lane := range held {
				if held[lane] && now.Sub(lastSeen[lane]) > k.Release {
					held[lane] = false
					if !send(ctx, events, Event{Action: Lane, Lane: lane, Pressed: false, Time: now}) {
						return
					}
				}
			}
		}
	}
}

func (k *Keyboard) translate(ev keyboard.KeyEvent, now time.Time) (Event, bool) {
	switch ev.Key {
	case keyboard.KeySpace:
		return Event{Action: TogglePause, Time: now}, true
	case keyboard.KeyEsc, keyboard.KeyCtrlC:
		return Event{Action: Quit, Time: now}, true
	case keyboard.KeyBackspace, keyboard.KeyBackspace2:
		return Event{Action: Restart, Time: now}, true
	}
	lane := k.Keymap.Lane(ev.Rune)
	if lane < 0 {
		return Event{}, false
	}
	return Event{Action: Lane, Lane: lane, Pressed: true, Time: now}, true
}

// Drain discards keys typed while another source was in use
func (k *Keyboard) Drain() {
	for {
		select {
		case _, ok := <-k.keys:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (k *Keyboard) Close() error {
	var err error
	k.closeOnce.Do(func() {
		err = keyboard.Close()
	})
	return err
}
