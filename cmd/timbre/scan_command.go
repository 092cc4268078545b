package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundvault/timbre/store"
)

func newScanCommand() *cobra.Command {
	var libraryPath string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Register audio files from the library directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if libraryPath == "" {
				libraryPath = cfg.LibraryPath
			}

			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			added, err := st.ScanDirectory(cmd.Context(), libraryPath)
			if err != nil {
				return err
			}

			total, err := st.CountFiles(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("registered %d new files (%d total)\n", added, total)
			return nil
		},
	}

	cmd.Flags().StringVar(&libraryPath, "library", "", "library directory to scan (defaults to config library_path)")

	return cmd
}
