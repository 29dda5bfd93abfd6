package render

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.lost.host/meutraa/ryth/internal/game"
	"git.lost.host/meutraa/ryth/internal/score"
	"git.lost.host/meutraa/ryth/internal/store"
	"git.lost.host/meutraa/ryth/internal/testdata"
	"git.lost.host/meutraa/ryth/internal/theme"
)

func TestDefaultRenderer(t *testing.T) {
	var out bytes.Buffer
	r := &DefaultRenderer{Out: &out, Fd: -1}

	require.NoError(t, r.Init())
	assert.Equal(t, "\033[?1049h\033[?25l\033[2J", out.String())
	out.Reset()

	r.Fill(3, 5, "x")
	r.FillColor(1, 2, color.RGBA{1, 2, 3, 255}, "y")
	require.NoError(t, r.Flush())
	assert.Equal(t, "\033[3;5Hx\033[1;2H\033[38;2;1;2;3my\033[0m", out.String())
	out.Reset()

	require.NoError(t, r.Deinit())
	assert.Equal(t, "\033[?1049l\033[?25h", out.String())
}

func TestDecorationsExpire(t *testing.T) {
	var out bytes.Buffer
	r := &DefaultRenderer{Out: &out, Fd: -1}

	r.AddDecoration(2, 5, "*", 1)
	require.NoError(t, r.Flush())
	assert.Equal(t, "\033[5;2H*", out.String())
	out.Reset()

	require.NoError(t, r.Flush())
	assert.Equal(t, "\033[5;2H ", out.String())
	assert.Empty(t, r.decorations)
}

func TestDecorationReplacedAndBlanked(t *testing.T) {
	var out bytes.Buffer
	r := &DefaultRenderer{Out: &out, Fd: -1}
	th := &theme.DefaultTheme{}

	r.AddDecoration(2, 5, th.RenderJudgement(game.Good), 5)
	r.AddDecoration(2, 5, th.RenderJudgement(game.Miss), 1)
	require.Len(t, r.decorations, 1)
	require.NoError(t, r.Flush())
	out.Reset()

	require.NoError(t, r.Flush())
	assert.Equal(t, "\033[5;2H         ", out.String())
	assert.Empty(t, r.decorations)
}

// cells keeps the last fill at each position
type cells struct {
	fills       map[[2]int]string
	cleared     int
	decorations int
}

func newCells() *cells {
	return &cells{fills: map[[2]int]string{}}
}

func (c *cells) Init() error                                    { return nil }
func (c *cells) Deinit() error                                  { return nil }
func (c *cells) Size() (int, int, error)                        { return 80, 24, nil }
func (c *cells) Fill(row, col int, s string)                    { c.fills[[2]int{row, col}] = s }
func (c *cells) FillColor(row, col int, _ color.RGBA, s string) { c.Fill(row, col, s) }
func (c *cells) Flush() error                                   { return nil }

func (c *cells) AddDecoration(col, row int, s string, _ int) {
	c.decorations++
	c.Fill(row, col, s)
}

func (c *cells) Clear() {
	c.fills = map[[2]int]string{}
	c.cleared++
}

func (c *cells) text() string {
	var b strings.Builder
	for _, s := range c.fills {
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String()
}

func newPlayfield(c *cells) *Playfield {
	p := &Playfield{Renderer: c, Theme: &theme.DefaultTheme{}, Keys: 4, Window: 1000, BarRow: 2, Spacing: 4}
	p.Layout(80, 22)
	return p
}

func TestPlayfieldLayout(t *testing.T) {
	p := newPlayfield(newCells())
	assert.Equal(t, []int{34, 38, 42, 46}, p.lanes)
	assert.Equal(t, 20, p.hitRow)
	assert.Equal(t, 2, p.sideCol)
	assert.Equal(t, 1000, p.Horizon())

	assert.Equal(t, 20, p.row(300, 300))
	assert.Equal(t, 1, p.row(1300, 300))
	assert.Equal(t, 10, p.row(500, 0))
}

func TestPlayfieldDraw(t *testing.T) {
	c := newCells()
	p := newPlayfield(c)
	th := &theme.DefaultTheme{}

	hold := score.RuntimeNote{Note: game.Note{Time: 0, EndTime: 500, Lane: 1, Kind: game.Hold}, HoldStartHit: true}
	tap := score.RuntimeNote{Note: game.Note{Time: 500, EndTime: 500, Lane: 0}}
	p.Draw(score.Snapshot{
		State:     score.Paused,
		Notes:     []score.RuntimeNote{hold, tap},
		Held:      []bool{false, true, false, false},
		Combo:     12,
		Accuracy:  0.5,
		HasLast:   true,
		Last:      game.Great,
		Counts:    game.Counts{Great: 1},
		NoteCount: 6,
	})

	assert.Equal(t, th.RenderNote(0, 4), c.fills[[2]int{10, 34}])
	for row := 10; row < 20; row++ {
		assert.Equal(t, th.RenderHold(1, 4), c.fills[[2]int{row, 38}], row)
	}
	assert.Equal(t, " ", c.fills[[2]int{9, 38}])
	assert.Equal(t, "=", c.fills[[2]int{20, 38}])
	assert.Equal(t, "-", c.fills[[2]int{20, 34}])

	assert.Equal(t, " PAUSED ", c.fills[[2]int{10, 36}])
	assert.Equal(t, th.RenderJudgement(game.Great), c.fills[[2]int{11, 35}])
	assert.Equal(t, 1, c.decorations)
	assert.Contains(t, c.fills[[2]int{5, 2}], "12")
	assert.Contains(t, c.fills[[2]int{7, 2}], "50.00%")
	assert.Equal(t, "    GREAT:       1", c.fills[[2]int{12, 2}])
}

func TestPlayfieldFlashesNewJudgements(t *testing.T) {
	c := newCells()
	p := newPlayfield(c)

	p.Draw(score.Snapshot{HasLast: true, Last: game.Perfect, Counts: game.Counts{Perfect: 1}})
	p.Draw(score.Snapshot{HasLast: true, Last: game.Perfect, Counts: game.Counts{Perfect: 1}})
	assert.Equal(t, 1, c.decorations)

	p.Draw(score.Snapshot{HasLast: true, Last: game.Miss, Counts: game.Counts{Perfect: 1, Miss: 1}})
	assert.Equal(t, 2, c.decorations)

	// Restarted
	p.Draw(score.Snapshot{})
	p.Draw(score.Snapshot{HasLast: true, Last: game.Bad, Counts: game.Counts{Bad: 1}})
	assert.Equal(t, 3, c.decorations)
}

func TestPlayfieldSkipsLanesOffTheField(t *testing.T) {
	c := newCells()
	p := newPlayfield(c)
	assert.NotPanics(t, func() {
		p.Draw(score.Snapshot{Notes: []score.RuntimeNote{
			{Note: game.Note{Time: 100, EndTime: 100, Lane: -1745094037927936}},
			{Note: game.Note{Time: 100, EndTime: 600, Lane: 4, Kind: game.Hold}},
		}})
	})
}

func TestMenu(t *testing.T) {
	chart, err := testdata.GetChart()
	require.NoError(t, err)
	charts := []*game.Chart{chart, chart, chart}

	c := newCells()
	Menu(c, charts, 1, 24)
	assert.Equal(t, 1, c.cleared)
	assert.Contains(t, c.fills[[2]int{4, 2}], "\033[7m")
	assert.NotContains(t, c.fills[[2]int{3, 2}], "\033[7m")
	assert.Contains(t, c.fills[[2]int{3, 2}], "Nobody - Sample [Normal]")

	// Scrolls to keep the selection visible
	many := make([]*game.Chart, 40)
	for i := range many {
		many[i] = chart
	}
	c = newCells()
	Menu(c, many, 39, 13)
	assert.Contains(t, c.fills[[2]int{12, 2}], " 39)")
	assert.Contains(t, c.fills[[2]int{12, 2}], "\033[7m")
}

func TestResults(t *testing.T) {
	c := newCells()
	summary := score.Summary{
		Score:    654321,
		Accuracy: 96.5,
		MaxCombo: 42,
		Chart:    game.Identity{Title: "Sample", Difficulty: "Normal", Mapper: "meutraa"},
	}
	board := []store.ScoreEntry{{Player: "a", Score: 2}, {Player: "b", Score: 1}}
	Results(c, &theme.DefaultTheme{}, summary, board)

	text := c.text()
	assert.Contains(t, text, "Sample [Normal] by meutraa")
	assert.Contains(t, text, "        S")
	assert.Contains(t, text, "65")
	assert.Contains(t, c.fills[[2]int{4, 50}], " 1. a")
	assert.Contains(t, c.fills[[2]int{5, 50}], " 2. b")
}
