package main

import (
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dpcfinder/dpc-enrich/internal/pipeline"
	"github.com/dpcfinder/dpc-enrich/internal/source"
)

var frontierCmd = &cobra.Command{
	Use:   "frontier",
	Short: "Ingest the DPC Frontier mapper",
	Long: `Fetch every practice listed by the DPC Frontier mapper and upsert it
into the provider store. Safe to re-run; stored data is never downgraded.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "frontier: open store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "frontier: migrate")
		}

		fetcher := source.NewFrontier(
			source.WithFrontierBaseURL(cfg.Frontier.BaseURL),
			source.WithFrontierHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Frontier.TimeoutMS) * time.Millisecond,
			}),
		)

		_, err = pipeline.FrontierPass(ctx, st, fetcher, newResolver(), newRunner(cmd, cfg.Frontier.DelayMS))
		return err
	},
}

func init() {
	rootCmd.AddCommand(frontierCmd)
}
