package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/soundvault/timbre/store"
)

func newAggregateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate <file-id>...",
		Short: "Print the mean feature vector of a group of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileIDs := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid file id %q", arg)
				}
				fileIDs = append(fileIDs, id)
			}

			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			agg, err := st.Aggregate(cmd.Context(), fileIDs)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(agg)
		},
	}

	return cmd
}
