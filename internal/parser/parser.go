package parser

import "git.lost.host/meutraa/ryth/internal/game"

// Parser turns one chart definition into a chart without media or
// computed metadata.
type Parser interface {
	Parse(data []byte) (*game.Chart, error)
}
