package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dpcfinder/dpc-enrich/internal/pipeline"
	"github.com/dpcfinder/dpc-enrich/internal/source"
)

var allianceCmd = &cobra.Command{
	Use:   "alliance",
	Short: "Ingest the DPC Alliance member directory",
	Long: `Scrape the DPC Alliance member directory through the render proxy and
merge members into the provider store. Members matching an existing
provider enrich that row; the rest get their own dpca- namespaced rows.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "alliance: open store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "alliance: migrate")
		}

		fetcher := source.NewAlliance(newRenderClient(), cfg.Alliance.BaseURL)

		_, err = pipeline.AlliancePass(ctx, st, fetcher, newResolver(), newRunner(cmd, cfg.Alliance.DelayMS))
		return err
	},
}

func init() {
	rootCmd.AddCommand(allianceCmd)
}
