package theme

import (
	"image/color"

	"git.lost.host/meutraa/ryth/internal/game"
)

type Theme interface {
	RenderNote(lane, keys int) string
	RenderHold(lane, keys int) string
	RenderHitField(lane int, held bool) string
	RenderJudgement(j game.Judgement) string
	JudgementColor(j game.Judgement) color.RGBA
}
