package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dpcfinder/dpc-enrich/internal/pipeline"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Scrape membership pricing from practice websites",
	Long: `Render each practice website and extract membership fees, tiers, and
acceptance status. By default only providers with no or low pricing
confidence are visited; --force rescrapes everything with a website.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		force, _ := cmd.Flags().GetBool("force")

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "pricing: open store")
		}
		defer st.Close()

		_, err = pipeline.PricingPass(ctx, st, newRenderClient(), newRunner(cmd, cfg.Render.DelayMS), force)
		return err
	},
}

func init() {
	pricingCmd.Flags().Bool("force", false, "rescrape providers that already have high-confidence pricing")
	rootCmd.AddCommand(pricingCmd)
}
