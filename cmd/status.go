package main

import (
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show enrichment coverage counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "status: open store")
		}
		defer st.Close()

		counts, err := st.Counts(ctx)
		if err != nil {
			return eris.Wrap(err, "status: counts")
		}

		fmt.Printf("Providers:            %d\n", counts.Providers)
		fmt.Printf("Unknown location:     %d\n", counts.UnknownLocation)
		fmt.Printf("Missing coordinates:  %d\n", counts.MissingCoordinates)
		fmt.Printf("Missing website:      %d\n", counts.MissingWebsite)

		fmt.Println("Pricing confidence:")
		levels := make([]string, 0, len(counts.PricingConfidence))
		for level := range counts.PricingConfidence {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		for _, level := range levels {
			fmt.Printf("  %-8s %d\n", level, counts.PricingConfidence[level])
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
