package input

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// https://github.com/torvalds/linux/blob/master/include/uapi/linux/input-event-codes.h
const (
	evKey = 0x01

	keyEsc       = 1
	keyBackspace = 14
	keySpace     = 57
)

var keyCodes = map[rune]uint16{
	'1': 2, '2': 3, '3': 4, '4': 5, '5': 6, '6': 7, '7': 8, '8': 9, '9': 10, '0': 11,
	'q': 16, 'w': 17, 'e': 18, 'r': 19, 't': 20, 'y': 21, 'u': 22, 'i': 23, 'o': 24, 'p': 25,
	'a': 30, 's': 31, 'd': 32, 'f': 33, 'g': 34, 'h': 35, 'j': 36, 'k': 37, 'l': 38, ';': 39, '\'': 40,
	'z': 44, 'x': 45, 'c': 46, 'v': 47, 'b': 48, 'n': 49, 'm': 50, ',': 51, '.': 52, '/': 53,
}

type keyEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Evdev reads a raw /dev/input device, which reports real key releases.
// Reading it usually needs the input group.
type Evdev struct {
	Device string
	Keymap Keymap
	Log    *zap.Logger

	file  *os.File
	mu    sync.Mutex
	lanes map[uint16]int
}

func (d *Evdev) log() *zap.Logger {
	if nil == d.Log {
		return zap.NewNop()
	}
	return d.Log
}

func (d *Evdev) Start(ctx context.Context, events chan<- Event) error {
	lanes := make(map[uint16]int, len(d.Keymap))
	for lane, r := range d.Keymap {
		code, ok := keyCodes[r]
		if !ok {
			return fmt.Errorf("no key code for %q", r)
		}
		lanes[code] = lane
	}

	file, err := os.Open(d.Device)
	if nil != err {
		return err
	}
	d.mu.Lock()
	d.file = file
	d.lanes = lanes
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.Close()
	}()
	go d.run(ctx, file, events)
	return nil
}

func (d *Evdev) run(ctx context.Context, r io.Reader, events chan<- Event) {
	var ev keyEvent
	for {
		if err := binary.Read(r, binary.LittleEndian, &ev); nil != err {
			if nil == ctx.Err() {
				d.log().Warn("unable to read keyboard input", zap.Error(err))
			}
			return
		}
		e, ok := d.translate(ev)
		if !ok {
			continue
		}
		if !send(ctx, events, e) {
			return
		}
	}
}

// translate drops auto-repeat (value 2) and every non key event
func (d *Evdev) translate(ev keyEvent) (Event, bool) {
	if ev.Type != evKey || ev.Value > 1 {
		return Event{}, false
	}
	pressed := ev.Value == 1
	t := time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*1000)

	if lane, ok := d.lanes[ev.Code]; ok {
		return Event{Action: Lane, Lane: lane, Pressed: pressed, Time: t}, true
	}
	if !pressed {
		return Event{}, false
	}
	switch ev.Code {
	case keySpace:
		return Event{Action: TogglePause, Time: t}, true
	case keyEsc:
		return Event{Action: Quit, Time: t}, true
	case keyBackspace:
		return Event{Action: Restart, Time: t}, true
	}
	return Event{}, false
}

func (d *Evdev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if nil == d.file {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
