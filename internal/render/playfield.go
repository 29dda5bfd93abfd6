package render

import (
	"fmt"
	"math"

	"git.lost.host/meutraa/ryth/internal/game"
	"git.lost.host/meutraa/ryth/internal/score"
	"git.lost.host/meutraa/ryth/internal/theme"
)

// Playfield draws lanes scrolling down towards the hit bar, with the
// run's stats to the left.
type Playfield struct {
	Renderer Renderer
	Theme    theme.Theme
	Keys     int
	Window   int // ms between the top row and the hit bar
	BarRow   int // rows between the hit bar and the bottom
	Spacing  int
	Flash    int // frames a judgement stays on screen

	rows     int
	hitRow   int
	lanes    []int
	sideCol  int
	middle   int
	resolved int
}

func (p *Playfield) Layout(columns, rows int) {
	p.rows = rows
	p.hitRow = max(rows-p.BarRow, 2)
	p.middle = columns / 2

	spacing := max(p.Spacing, 2)
	left := p.middle - spacing*(p.Keys-1)/2
	p.lanes = make([]int, p.Keys)
	for i := range p.lanes {
		p.lanes[i] = left + i*spacing
	}
	p.sideCol = 2
	if p.Keys > 0 {
		p.sideCol = max(p.lanes[0]-36, 2)
	}
}

// Horizon is how far ahead of the game time a note becomes visible
func (p *Playfield) Horizon() int {
	return p.Window
}

func (p *Playfield) row(time, gameTime int) int {
	if p.Window <= 0 {
		return p.hitRow
	}
	return p.hitRow - int(math.Round(float64(time-gameTime)*float64(p.hitRow-1)/float64(p.Window)))
}

func (p *Playfield) Draw(s score.Snapshot) {
	r := p.Renderer

	for row := 1; row < p.hitRow; row++ {
		for _, col := range p.lanes {
			r.Fill(row, col, " ")
		}
	}
	for lane, col := range p.lanes {
		held := lane < len(s.Held) && s.Held[lane]
		r.Fill(p.hitRow, col, p.Theme.RenderHitField(lane, held))
	}

	for _, n := range s.Notes {
		if n.Lane < 0 || n.Lane >= len(p.lanes) {
			continue
		}
		col := p.lanes[n.Lane]
		head := p.row(n.Time, s.GameTime)
		if n.HoldStartHit {
			// Pinned to the bar while held
			head = p.hitRow
		}
		if n.IsHold() {
			tail := max(p.row(n.EndTime, s.GameTime), 1)
			for row := tail; row < min(head, p.hitRow); row++ {
				r.Fill(row, col, p.Theme.RenderHold(n.Lane, p.Keys))
			}
		}
		if !n.HoldStartHit && head >= 1 && head < p.hitRow {
			r.Fill(head, col, p.Theme.RenderNote(n.Lane, p.Keys))
		}
	}

	p.hud(s)
}

func (p *Playfield) hud(s score.Snapshot) {
	r, side := p.Renderer, p.sideCol

	r.Fill(4, side, fmt.Sprintf("      Score:  %9.0f", s.Score))
	r.Fill(5, side, fmt.Sprintf("      Combo:  %9d", s.Combo))
	r.Fill(6, side, fmt.Sprintf("  Max Combo:  %9d", s.MaxCombo))
	r.Fill(7, side, fmt.Sprintf("   Accuracy:  %8.2f%%", s.Accuracy*100))
	r.Fill(8, side, fmt.Sprintf("      Notes:  %4d/%4d", s.Counts.Total(), s.NoteCount))
	for i, j := range game.Judgements {
		r.FillColor(10+i, side, p.Theme.JudgementColor(j), fmt.Sprintf("%9v:  %6d", j, s.Counts.Get(j)))
	}

	status := "        "
	if s.State == score.Paused {
		status = " PAUSED "
	}
	r.Fill(p.rows/2-1, p.middle-4, status)

	// Flash each newly resolved note's judgement, a restart starts over
	total := s.Counts.Total()
	if total > p.resolved && s.HasLast {
		r.AddDecoration(p.middle-5, p.rows/2, p.Theme.RenderJudgement(s.Last), max(p.Flash, 1))
	}
	p.resolved = total
}
