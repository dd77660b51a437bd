package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the stored outline and its generation parameters",
	Long: `Purge removes the stored outline and the last-used research parameters
from the state directory. The next step must be generate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(cmd)
		s, err := openSession(log)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.controller.Purge(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Purged stored outline from %s\n", s.cfg.State.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
