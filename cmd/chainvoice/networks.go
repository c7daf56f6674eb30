package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	chainvoice "github.com/chainvoice/chainvoice-go"
)

var networksAll bool

func init() {
	networksCmd := &cobra.Command{
		Use:   "networks",
		Short: "List known networks",
		Long:  `List the networks in the registry with their chain ids and token addresses.`,
		Run:   runNetworks,
	}
	networksCmd.Flags().BoolVarP(&networksAll, "all", "a", false, "include unsupported networks")
	rootCmd.AddCommand(networksCmd)
}

func runNetworks(cmd *cobra.Command, args []string) {
	networks := chainvoice.SupportedNetworks()
	if networksAll {
		networks = chainvoice.AllNetworks()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCHAIN ID\tCURRENCY\tTOKEN\tSTATUS")
	for _, n := range networks {
		token := n.TokenAddress
		if token == "" {
			token = "-"
		}
		status := color.New(color.FgGreen).Sprint("supported")
		if !n.IsSupported {
			status = color.New(color.FgHiBlack).Sprint("unsupported")
		} else if n.IsTestnet {
			status = color.New(color.FgYellow).Sprint("testnet")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", n.Name, n.ChainID, n.NativeCurrencySymbol, token, status)
	}
	w.Flush()
}
