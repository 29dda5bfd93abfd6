package input

import (
	"context"
	"time"
)

type Action uint8

const (
	Lane Action = iota // A lane key was pressed or released
	TogglePause
	Quit
	Restart
)

type Event struct {
	Action  Action
	Lane    int
	Pressed bool // false for a release, only meaningful for Lane
	Time    time.Time
}

// Source delivers events until ctx is done. Start does not block.
type Source interface {
	Start(ctx context.Context, events chan<- Event) error
	Close() error
}

// Keymap maps lane index to the key that plays it
type Keymap []rune

func (k Keymap) Lane(r rune) int {
	for i, c := range k {
		if r == c {
			return i
		}
	}
	return -1
}

func send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
