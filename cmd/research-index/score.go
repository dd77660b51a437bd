package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-index/internal/quality"
)

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score outline text without storing it",
	Long: `Score computes language purity, structural conformance, and academic
completeness for the text in file, or stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 0 || args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("reading outline: %w", err)
		}

		scores := quality.Evaluate(string(data))
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(scores)
		}
		printScores(os.Stdout, scores)
		return nil
	},
}

func init() {
	scoreCmd.Flags().Bool("json", false, "output scores as JSON")

	rootCmd.AddCommand(scoreCmd)
}
