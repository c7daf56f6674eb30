package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chainvoice",
	Short: "Chainvoice - on-chain stablecoin invoicing",
	Long: `Chainvoice creates, pays, and tracks stablecoin invoices held by an
on-chain contract, with metadata pinned to IPFS and QR payment links for
mobile wallets.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "chainvoice.yaml", "path to the configuration file")
}
