package theme

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"git.lost.host/meutraa/ryth/internal/game"
)

func TestLaneColor(t *testing.T) {
	white, blue, yellow := laneColors[0], laneColors[1], laneColors[2]

	assert.Equal(t, []any{white, blue, blue, white}, colors(4))
	assert.Equal(t, []any{white, blue, yellow, blue, white}, colors(5))
	assert.Equal(t, []any{white, blue, white, white, blue, white}, colors(6))
	assert.Equal(t, []any{yellow}, colors(1))
}

func colors(keys int) []any {
	c := make([]any, keys)
	for i := range c {
		c[i] = LaneColor(i, keys)
	}
	return c
}

func TestRender(t *testing.T) {
	th := &DefaultTheme{}
	assert.Equal(t, "\033[38;2;236;236;236m⬤\033[0m", th.RenderNote(0, 4))
	assert.Equal(t, "\033[38;2;0;118;236m┃\033[0m", th.RenderHold(1, 4))
	assert.Equal(t, "-", th.RenderHitField(0, false))
	assert.Equal(t, "=", th.RenderHitField(0, true))

	for _, j := range game.Judgements {
		s := th.RenderJudgement(j)
		assert.Contains(t, s, j.String())
		assert.True(t, strings.HasPrefix(s, "\033[38;2;"))
	}
	assert.Contains(t, th.RenderJudgement(game.Miss), "     MISS")
	assert.Equal(t, judgementColors[game.Miss], th.JudgementColor(game.Miss))
}
