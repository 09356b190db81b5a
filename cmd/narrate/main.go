package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &renderOptions{}
	root := &cobra.Command{
		Use:           "narrate",
		Short:         "Render payment timelines, dispute copy and fee breakdowns from JSON records",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.timezone, "timezone", "UTC", "IANA timezone dates are rendered in")
	root.PersistentFlags().Int64Var(&opts.now, "now", 0, "Unix time used as today for countdowns (default: current time)")
	root.PersistentFlags().BoolVar(&opts.text, "text", false, "Print plain text instead of JSON")

	root.AddCommand(timelineCmd(opts))
	root.AddCommand(disputeCmd(opts))
	root.AddCommand(feesCmd(opts))
	return root
}
