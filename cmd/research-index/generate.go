package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-index/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Request a new research outline from the generation service",
	Long: `Generate sends the research parameters to the outline generation service,
scores the returned outline, and stores it as the active outline. The
parameters are stored too, so regenerate can replay them.

On failure the previously stored outline is left untouched.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	params, err := paramsFromFlags(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cmd)
	s, err := openSession(log)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(os.Stderr, "Generating outline for %q (%d pages, %s, %s)...\n",
		params.Title, params.Pages, params.CitationStyle, params.Model)
	if err := warnPersist(s.controller.Create(cmd.Context(), params)); err != nil {
		return err
	}
	return printActive(s)
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Replace the outline with a new one from the last-used parameters",
	Long: `Regenerate replays the stored research parameters against the generation
service. The current outline is replaced only when the service returns a
valid outline; any failure leaves it exactly as it was.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		s, err := openSession(log)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.load(cmd); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Regenerating outline...")
		if err := warnPersist(s.controller.Regenerate(cmd.Context())); err != nil {
			return err
		}
		return printActive(s)
	},
}

func paramsFromFlags(cmd *cobra.Command) (types.GenerationParams, error) {
	params := types.DefaultGenerationParams()

	params.Title, _ = cmd.Flags().GetString("title")
	params.Pages, _ = cmd.Flags().GetInt("pages")
	citation, _ := cmd.Flags().GetString("citation")
	params.CitationStyle = types.CitationStyle(citation)
	model, _ := cmd.Flags().GetString("model")
	params.Model = types.ModelBackend(model)
	params.IsAcademic, _ = cmd.Flags().GetBool("academic")

	if err := params.Validate(); err != nil {
		return types.GenerationParams{}, err
	}
	return params, nil
}

func printActive(s *session) error {
	doc, ok := s.controller.Document()
	if !ok {
		return fmt.Errorf("no outline loaded")
	}
	printDocument(os.Stdout, doc)
	return nil
}

func init() {
	defaults := types.DefaultGenerationParams()

	generateCmd.Flags().String("title", "", "research title (required)")
	generateCmd.Flags().Int("pages", defaults.Pages, fmt.Sprintf("paper length in pages (offered: %v)", types.PageOptions))
	generateCmd.Flags().String("citation", string(defaults.CitationStyle), "citation style: APA, MLA, Chicago, Harvard")
	generateCmd.Flags().Bool("academic", defaults.IsAcademic, "request academic requirements and a page breakdown")
	generateCmd.Flags().String("model", string(defaults.Model), "generation backend: ollama, openai, openrouter")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(regenerateCmd)
}
