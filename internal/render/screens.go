package render

import (
	"fmt"

	"git.lost.host/meutraa/ryth/internal/game"
	"git.lost.host/meutraa/ryth/internal/score"
	"git.lost.host/meutraa/ryth/internal/store"
	"git.lost.host/meutraa/ryth/internal/theme"
)

// Menu lists charts around the selected one, rows limits how many show
func Menu(r Renderer, charts []*game.Chart, selected, rows int) {
	r.Clear()
	r.Fill(1, 2, "Select a chart, j/k to move, enter to play, esc to quit")

	visible := max(rows-3, 1)
	first := min(max(selected-visible/2, 0), max(len(charts)-visible, 0))
	for i := first; i < len(charts) && i < first+visible; i++ {
		m := charts[i].Metadata
		line := fmt.Sprintf("%3v) %4vK %4v* %5v %5v  %v - %v [%v]",
			i, m.Keys, m.Rating, m.Objects, m.Length, m.Artist, m.Title, m.Difficulty)
		if i == selected {
			line = "\033[7m" + line + "\033[0m"
		}
		r.Fill(3+i-first, 2, line)
	}
}

// Results shows a finished run and the chart's leaderboard
func Results(r Renderer, th theme.Theme, s score.Summary, board []store.ScoreEntry) {
	r.Clear()
	r.Fill(2, 4, fmt.Sprintf("%v [%v] by %v", s.Chart.Title, s.Chart.Difficulty, s.Chart.Mapper))
	r.Fill(4, 4, fmt.Sprintf("       Rank:  %9v", s.Rank()))
	r.Fill(5, 4, fmt.Sprintf("      Score:  %9.0f", s.Score))
	r.Fill(6, 4, fmt.Sprintf("   Accuracy:  %8.2f%%", s.Accuracy))
	r.Fill(7, 4, fmt.Sprintf("  Max Combo:  %9d", s.MaxCombo))
	r.Fill(8, 4, fmt.Sprintf("         PP:  %9d", score.PP(s.Score)))
	for i, j := range game.Judgements {
		r.Fill(10+i, 4, fmt.Sprintf("%v:  %6d", th.RenderJudgement(j), s.Judgements.Get(j)))
	}

	r.Fill(2, 50, "Leaderboard")
	for i, e := range board {
		if i == 10 {
			break
		}
		r.Fill(4+i, 50, fmt.Sprintf("%2d. %-16v %9.0f %7.2f%% %5dx", i+1, e.Player, e.Score, e.Accuracy, e.Combo))
	}
	r.Fill(17, 4, "Press any key to continue")
}
