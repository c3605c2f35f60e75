package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/mcoot/lightsduel/internal/api/response"
	"github.com/mcoot/lightsduel/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case response.Leaderboard:
		o.printLeaderboard(v)
	case response.Status:
		o.printStatus(v)
	case response.Solve:
		o.printSolve(v)
	case BotSummary:
		o.printBotSummary(v)
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "Player: %s\n", p.Username)
	fmt.Fprintf(o.w, "Wins: %d  Losses: %d  Played: %d  Standing: %+d\n", p.Wins, p.Losses, p.GamesPlayed, p.Standing)
}

func (o *Output) printLeaderboard(l response.Leaderboard) {
	if len(l.Players) == 0 {
		fmt.Fprintln(o.w, "No players registered")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPLAYER\tWINS\tLOSSES\tPLAYED\tSTANDING")
	for i, p := range l.Players {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%+d\n", i+1, p.Username, p.Wins, p.Losses, p.GamesPlayed, p.Standing)
	}
	_ = tw.Flush()
}

func (o *Output) printStatus(s response.Status) {
	fmt.Fprintf(o.w, "Uptime: %s\n", s.Uptime)
	fmt.Fprintf(o.w, "Connections: %d\n", s.Connections)
	fmt.Fprintf(o.w, "Queued: %d\n", s.Queued)
	fmt.Fprintf(o.w, "Active games: %d\n", s.ActiveGames)

	states := make([]string, 0, len(s.Sessions))
	for state := range s.Sessions {
		states = append(states, state)
	}
	slices.Sort(states)
	for _, state := range states {
		fmt.Fprintf(o.w, "  %s: %d\n", state, s.Sessions[state])
	}
}

func (o *Output) printSolve(s response.Solve) {
	fmt.Fprintf(o.w, "Board: %dx%d  Rank: %d  Nullity: %d\n", s.Rows, s.Cols, s.Rank, s.Nullity)
	if !s.Solvable {
		fmt.Fprintln(o.w, "No press pattern reaches this board")
		return
	}
	fmt.Fprintf(o.w, "Solutions: %d\n", len(s.Solutions))
	for i, sol := range s.Solutions {
		fmt.Fprintf(o.w, "\n#%d\n", i+1)
		o.printBoard(sol)
	}
}

// printBoard draws pressed cells as X and the rest as dots
func (o *Output) printBoard(b model.Board) {
	for _, row := range b {
		var sb strings.Builder
		for j, v := range row {
			if j > 0 {
				sb.WriteByte(' ')
			}
			if v%2 == 1 {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('.')
			}
		}
		fmt.Fprintln(o.w, sb.String())
	}
}

func (o *Output) printBotSummary(b BotSummary) {
	fmt.Fprintf(o.w, "Player: %s\n", b.Username)
	fmt.Fprintf(o.w, "Games: %d  Wins: %d  Losses: %d\n", b.Games, b.Wins, b.Losses)
	fmt.Fprintf(o.w, "Turns: %d\n", b.Turns)
}
