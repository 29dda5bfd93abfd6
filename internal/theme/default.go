package theme

import (
	"fmt"
	"image/color"

	"git.lost.host/meutraa/ryth/internal/game"
)

type DefaultTheme struct {
}

func paint(c color.RGBA, s string) string {
	return fmt.Sprintf("\033[38;2;%v;%v;%vm%v\033[0m", c.R, c.G, c.B, s)
}

func (t *DefaultTheme) RenderNote(lane, keys int) string {
	return paint(LaneColor(lane, keys), noteSym)
}

func (t *DefaultTheme) RenderHold(lane, keys int) string {
	return paint(LaneColor(lane, keys), holdSym)
}

func (t *DefaultTheme) RenderHitField(lane int, held bool) string {
	if held {
		return heldSym
	}
	return barSym
}

// RenderJudgement is padded to a fixed width so it overwrites the last one
func (t *DefaultTheme) RenderJudgement(j game.Judgement) string {
	return paint(t.JudgementColor(j), fmt.Sprintf("%9v", j.String()))
}

func (t *DefaultTheme) JudgementColor(j game.Judgement) color.RGBA {
	return judgementColors[j]
}

const (
	noteSym = "⬤"
	holdSym = "┃"
	barSym  = "-"
	heldSym = "="
)

var (
	laneColors = [...]color.RGBA{
		{236, 236, 236, 255}, // outer white
		{0, 118, 236, 255},   // blue
		{236, 195, 0, 255},   // centre yellow
	}
	judgementColors = map[game.Judgement]color.RGBA{
		game.Marvelous: {173, 236, 236, 255},
		game.Perfect:   {236, 195, 0, 255},
		game.Great:     {0, 236, 128, 255},
		game.Good:      {0, 118, 236, 255},
		game.Bad:       {106, 0, 236, 255},
		game.Miss:      {236, 30, 0, 255},
	}
)

// LaneColor alternates white and blue outside in, with a yellow centre lane
// when the key count is odd.
func LaneColor(lane, keys int) color.RGBA {
	if keys%2 == 1 && lane == keys/2 {
		return laneColors[2]
	}
	fromEdge := min(lane, keys-1-lane)
	return laneColors[fromEdge%2]
}
