package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-index/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the outline as Markdown, HTML, or YAML",
	Long: `Export writes the stored outline under a fixed filename:
فهرس_البحث.md (default), فهرس_البحث.html, or فهرس_البحث.yaml.
The Markdown file starts with the "# فهرس البحث" header.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	outDir, _ := cmd.Flags().GetString("output-dir")
	toStdout, _ := cmd.Flags().GetBool("stdout")

	log := newLogger(cmd)
	s, err := openSession(log)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.load(cmd); err != nil {
		return err
	}
	a, err := s.controller.Export(export.Format(format))
	if err != nil {
		return err
	}

	if toStdout {
		_, err := os.Stdout.Write(a.Content)
		return err
	}
	path, err := export.WriteFile(outDir, a)
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

func init() {
	exportCmd.Flags().String("format", string(export.FormatMarkdown), "export format: markdown, html, or yaml")
	exportCmd.Flags().StringP("output-dir", "o", ".", "directory to write the export into")
	exportCmd.Flags().Bool("stdout", false, "write the export to stdout instead of a file")

	rootCmd.AddCommand(exportCmd)
}
