package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/soundvault/timbre/decode"
	"github.com/soundvault/timbre/pipeline"
	"github.com/soundvault/timbre/store"
)

func newAnalyzeCommand() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Extract feature vectors for every unanalyzed file",
		Long:  "Pages through the library, analyzes every file without a stored feature vector, and commits results batch by batch. Interrupting with Ctrl-C finishes in-flight work before exiting.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize <= 0 {
				batchSize = cfg.BatchSize
			}

			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			decoder := decode.NewFFmpegDecoder(decode.Config{
				FFmpegPath: cfg.FFmpegPath,
				Timeout:    cfg.DecodeTimeout,
			})

			orch := pipeline.NewWithParams(st, st, decoder, cfg.WindowSize, cfg.HopSize)

			// First Ctrl-C cancels cooperatively; a second one kills the process
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			progress := mpb.New(mpb.WithWidth(48))
			var bar *mpb.Bar

			total, err := orch.Run(ctx, batchSize, func(processed, total int) {
				if bar == nil {
					bar = progress.AddBar(int64(total),
						mpb.PrependDecorators(
							decor.Name("analyzing "),
							decor.CountersNoUnit("%d / %d"),
						),
						mpb.AppendDecorators(decor.Percentage()),
					)
				}
				bar.SetCurrent(int64(processed))
			})
			if err != nil {
				return err
			}
			if bar != nil {
				bar.SetTotal(-1, true)
			}
			progress.Wait()

			switch orch.State() {
			case pipeline.StateCancelled:
				fmt.Printf("cancelled; completed work was committed (%d files in library)\n", total)
			default:
				fmt.Printf("done (%d files in library)\n", total)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&batchSize, "batch-size", "b", 0, "files per batch and max concurrent analyses (defaults to config batch_size)")

	return cmd
}
