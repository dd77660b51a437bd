package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the outline text and save it with fresh scores",
	Long: `Edit opens the stored outline as a draft. The new text comes from --file
("-" reads stdin) or, without --file, from $EDITOR on a temporary copy.

Saving rescores the outline and stores it. If the editor exits with an error
the draft is discarded and the stored outline is unchanged. An empty draft is
rejected.`,
	RunE: runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	s, err := openSession(log)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.load(cmd); err != nil {
		return err
	}
	if err := s.controller.BeginEdit(); err != nil {
		return err
	}
	draft, _ := s.controller.Draft()

	file, _ := cmd.Flags().GetString("file")
	text, err := readDraft(file, draft)
	if err != nil {
		if cerr := s.controller.Cancel(); cerr != nil {
			return errors.Join(err, cerr)
		}
		return fmt.Errorf("edit cancelled: %w", err)
	}

	if err := s.controller.SetDraft(text); err != nil {
		return err
	}
	if err := warnPersist(s.controller.Save(cmd.Context())); err != nil {
		return err
	}
	return printActive(s)
}

// readDraft returns the edited text from path, stdin, or an editor session
// seeded with current.
func readDraft(path, current string) (string, error) {
	switch path {
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	case "":
		return editInEditor(current)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), nil
	}
}

func editInEditor(current string) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	f, err := os.CreateTemp("", "research-index-*.md")
	if err != nil {
		return "", fmt.Errorf("creating draft file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(current); err != nil {
		f.Close()
		return "", fmt.Errorf("writing draft file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("writing draft file: %w", err)
	}

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w", editor, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading draft file: %w", err)
	}
	return string(data), nil
}

func init() {
	editCmd.Flags().StringP("file", "f", "", `read the new outline from a file ("-" for stdin)`)

	rootCmd.AddCommand(editCmd)
}
