package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lost.host/meutraa/ryth/internal/game"
)

const samples = 4410

func silence(t *testing.T) *game.Media {
	f, err := os.Create(filepath.Join(t.TempDir(), "song.wav"))
	require.NoError(t, err)
	defer f.Close()

	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(samples), format))

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return &game.Media{Filename: "song.wav", MimeType: "audio/wav", Data: data}
}

type fakeOutput struct {
	plays  int
	locked bool
}

func (f *fakeOutput) Play(beep.Streamer) { f.plays++ }
func (f *fakeOutput) Lock()              { f.locked = true }
func (f *fakeOutput) Unlock()            { f.locked = false }

func TestDecode(t *testing.T) {
	stream, format, err := Decode(silence(t))
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, beep.SampleRate(44100), format.SampleRate)
	assert.Equal(t, 2, format.NumChannels)
	assert.Equal(t, samples, stream.Len())
}

func TestDecodeErrors(t *testing.T) {
	_, _, err := Decode(nil)
	assert.ErrorIs(t, err, ErrNoAudio)

	_, _, err = Decode(&game.Media{Filename: "song.m4a", MimeType: "audio/mp4", Data: []byte{1}})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, _, err = Decode(&game.Media{Filename: "song.wav", MimeType: "audio/wav", Data: []byte("RIFF")})
	assert.Error(t, err)
}

func TestPlayer(t *testing.T) {
	stream, _, err := Decode(silence(t))
	require.NoError(t, err)

	out := &fakeOutput{}
	p := newPlayer(out, stream)
	assert.True(t, p.ctrl.Paused)

	p.Play()
	assert.False(t, p.ctrl.Paused)
	assert.Equal(t, 1, out.plays)

	buf := make([][2]float64, 512)
	n, ok := p.ctrl.Stream(buf)
	require.True(t, ok)
	assert.Equal(t, 512, stream.Position())
	assert.Equal(t, 512, n)

	p.Pause()
	assert.True(t, p.ctrl.Paused)
	p.Resume()
	assert.False(t, p.ctrl.Paused)

	p.Rewind()
	assert.Equal(t, 0, stream.Position())

	// The streamer is only handed to the device once
	p.Play()
	assert.Equal(t, 1, out.plays)
	assert.False(t, out.locked)

	require.NoError(t, p.Close())
	assert.True(t, p.ctrl.Paused)
}
