package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dpcfinder/dpc-enrich/internal/pipeline"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Backfill locations and coordinates",
	Long: `Resolve providers with unknown locations or missing coordinates using
stored address text and the Census geocoder. Requests are rate limited
to one per second.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "geocode: open store")
		}
		defer st.Close()

		_, err = pipeline.GeocodePass(ctx, st, newResolver(), newRunner(cmd, 0))
		return err
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
