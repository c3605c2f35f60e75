package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/lightsduel/internal/api/request"
	"github.com/mcoot/lightsduel/internal/api/response"
	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/services/board"
)

func newSolveCmd() *cobra.Command {
	var (
		limit  int
		remote bool
	)

	cmd := &cobra.Command{
		Use:   "solve ROW...",
		Short: "Find the press patterns that reach a board's parity",
		Long: `solve takes one argument per board row, cells separated by commas:

  lightsctl solve 0,1,0 1,1,1 0,1,0

Each solution marks the cells to press once.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseBoard(args)
			if err != nil {
				return err
			}

			var result response.Solve
			if remote {
				req := request.SolveRequest{Board: target, Limit: limit}
				if err := admin.Post(cmd.Context(), "/api/v1/solve", req, &result); err != nil {
					return err
				}
			} else {
				analysis, err := board.Analyze(target)
				if err != nil {
					return err
				}
				solutions, err := analysis.Solutions(limit)
				if err != nil {
					return err
				}
				result = response.SolveFromAnalysis(target, analysis, solutions)
			}

			NewOutput(cmd.OutOrStdout(), cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 64, "Refuse to list more than this many solutions")
	cmd.Flags().BoolVar(&remote, "remote", false, "Solve on the server through the admin API")

	return cmd
}

// parseBoard reads rows like "1,0,2" into a board
func parseBoard(rows []string) (model.Board, error) {
	b := make(model.Board, 0, len(rows))
	for i, row := range rows {
		fields := strings.Split(row, ",")
		cells := make([]uint32, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid cell %q", i+1, f)
			}
			cells = append(cells, uint32(v))
		}
		b = append(b, cells)
	}
	if !b.IsRectangular() {
		return nil, fmt.Errorf("every row must have the same number of cells")
	}
	return b, nil
}
