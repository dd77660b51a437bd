package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-index/internal/export"
	"github.com/pdiddy/research-index/internal/quality"
	"github.com/pdiddy/research-index/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active outline with its quality scores",
	Long: `Show prints the stored outline, its three quality scores with grades,
and, when present, the per-section page estimates and academic requirements.
Scores are recomputed from the outline text on every load.`,
	RunE: runShow,
}

// showOutput is the --json shape.
type showOutput struct {
	types.IndexDocument
	Scores types.QualityScores      `json:"scores"`
	Grades map[string]quality.Grade `json:"grades"`
}

func runShow(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	s, err := openSession(log)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.load(cmd); err != nil {
		return err
	}
	doc, _ := s.controller.Document()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	switch {
	case jsonOutput && yamlOutput:
		return fmt.Errorf("--json and --yaml are mutually exclusive")
	case jsonOutput:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(showOutput{
			IndexDocument: doc,
			Scores:        doc.Scores,
			Grades: map[string]quality.Grade{
				"language_purity":        quality.GradeOf(doc.Scores.LanguagePurity),
				"structural_conformance": quality.GradeOf(doc.Scores.StructuralConformance),
				"academic_completeness":  quality.GradeOf(doc.Scores.AcademicCompleteness),
			},
		})
	case yamlOutput:
		a, err := export.YAML(doc)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(a.Content)
		return err
	}

	printDocument(os.Stdout, doc)
	return nil
}

func init() {
	showCmd.Flags().Bool("json", false, "output the outline and scores as JSON")
	showCmd.Flags().Bool("yaml", false, "output the outline and scores as YAML")

	rootCmd.AddCommand(showCmd)
}
