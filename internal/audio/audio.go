package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"go.uber.org/zap"

	"git.lost.host/meutraa/ryth/internal/game"
	"git.lost.host/meutraa/ryth/internal/score"
)

var (
	ErrNoAudio     = errors.New("chart has no audio")
	ErrUnsupported = errors.New("unsupported audio format")
)

// Decoders only seek when their source does
type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }

// Decode reads archive audio by its mime type
func Decode(media *game.Media) (beep.StreamSeekCloser, beep.Format, error) {
	if nil == media || len(media.Data) == 0 {
		return nil, beep.Format{}, ErrNoAudio
	}
	rc := readSeekCloser{bytes.NewReader(media.Data)}
	switch media.MimeType {
	case "audio/mpeg":
		return mp3.Decode(rc)
	case "audio/ogg":
		return vorbis.Decode(rc)
	case "audio/wav":
		return wav.Decode(rc)
	}
	return nil, beep.Format{}, fmt.Errorf("%w: %s (%s)", ErrUnsupported, media.Filename, media.MimeType)
}

type output interface {
	Play(s beep.Streamer)
	Lock()
	Unlock()
}

var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

// speakerOutput opens the sound device at the first format it is given.
// Later streams are resampled to that rate.
type speakerOutput struct{}

func openSpeaker(format beep.Format) (beep.SampleRate, error) {
	speakerOnce.Do(func() {
		speakerRate = format.SampleRate
		speakerErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/60))
	})
	return speakerRate, speakerErr
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }

// Player plays one chart's audio. Calls never block on the device and
// errors are logged, a run goes on without sound.
type Player struct {
	Log *zap.Logger

	out     output
	stream  beep.StreamSeekCloser
	ctrl    *beep.Ctrl
	started bool
}

var _ score.Audio = (*Player)(nil)

func Open(media *game.Media, log *zap.Logger) (*Player, error) {
	stream, format, err := Decode(media)
	if nil != err {
		return nil, err
	}
	rate, err := openSpeaker(format)
	if nil != err {
		stream.Close()
		return nil, fmt.Errorf("unable to open speaker: %w", err)
	}

	p := newPlayer(speakerOutput{}, stream)
	p.Log = log
	if rate != format.SampleRate {
		p.ctrl.Streamer = beep.Resample(4, format.SampleRate, rate, stream)
	}
	return p, nil
}

func newPlayer(out output, stream beep.StreamSeekCloser) *Player {
	return &Player{
		out:    out,
		stream: stream,
		ctrl:   &beep.Ctrl{Streamer: stream, Paused: true},
	}
}

func (p *Player) log() *zap.Logger {
	if nil == p.Log {
		return zap.NewNop()
	}
	return p.Log
}

func (p *Player) Play() {
	p.out.Lock()
	p.ctrl.Paused = false
	started := p.started
	p.started = true
	p.out.Unlock()
	if !started {
		p.out.Play(p.ctrl)
	}
}

func (p *Player) Pause() {
	p.out.Lock()
	p.ctrl.Paused = true
	p.out.Unlock()
}

func (p *Player) Resume() {
	p.out.Lock()
	p.ctrl.Paused = false
	p.out.Unlock()
}

func (p *Player) Rewind() {
	p.out.Lock()
	err := p.stream.Seek(0)
	p.out.Unlock()
	if nil != err {
		p.log().Warn("unable to rewind audio", zap.Error(err))
	}
}

func (p *Player) Close() error {
	p.out.Lock()
	p.ctrl.Paused = true
	p.ctrl.Streamer = nil
	p.out.Unlock()
	return p.stream.Close()
}
