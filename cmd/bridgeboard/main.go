package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bridgeboard/bridgeboard/cmd/bridgeboard/commands"
)

var rootCmd = &cobra.Command{
	Use:   "bridgeboard",
	Short: "Bridgeboard cross-chain oracle request board",
	Long:  "Client for the bridgeboard daemon: post data requests, inspect their lifecycle, and query balances",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&commands.APIEndpoint, "api", "http://127.0.0.1:8480", "Daemon API endpoint")
}

func main() {
	rootCmd.AddCommand(commands.NewPostCmd())
	rootCmd.AddCommand(commands.NewUpgradeCmd())
	rootCmd.AddCommand(commands.NewRequestCmd())
	rootCmd.AddCommand(commands.NewClaimableCmd())
	rootCmd.AddCommand(commands.NewBalanceCmd())
	rootCmd.AddCommand(commands.NewWalletCmd())
	rootCmd.AddCommand(commands.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
