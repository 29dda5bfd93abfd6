package archive

import (
	"errors"

	"git.lost.host/meutraa/ryth/internal/game"
)

var (
	ErrEmptyArchive  = errors.New("archive contains no chart definitions")
	ErrNoValidCharts = errors.New("no charts with valid hit objects")
)

// Extractor turns a chart archive into every chart it defines. All charts
// from one archive share the same audio and background media.
type Extractor interface {
	Extract(data []byte) ([]*game.Chart, error)
}

// Playable drops charts without any notes. Extraction keeps them so the
// caller decides whether an empty chart is an error.
func Playable(charts []*game.Chart) ([]*game.Chart, error) {
	playable := make([]*game.Chart, 0, len(charts))
	for _, c := range charts {
		if len(c.Notes) > 0 {
			playable = append(playable, c)
		}
	}
	if len(playable) == 0 {
		return nil, ErrNoValidCharts
	}
	return playable, nil
}
