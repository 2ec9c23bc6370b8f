package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/dpcfinder/dpc-enrich/internal/pipeline"
)

var websitesCmd = &cobra.Command{
	Use:   "websites",
	Short: "Find practice websites via web search",
	Long: `Search the web for providers that have no website and store the first
result that is not a directory, social, or review domain.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "websites: open store")
		}
		defer st.Close()

		_, err = pipeline.WebsitesPass(ctx, st, newRenderClient(), newRunner(cmd, cfg.Render.DelayMS))
		return err
	},
}

func init() {
	rootCmd.AddCommand(websitesCmd)
}
