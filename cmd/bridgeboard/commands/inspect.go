package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRequestCmd creates the request inspection command
func NewRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request <handle>",
		Short: "Show a data request's lifecycle state and reward pools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			if err := apiCall("GET", "/v1/requests/"+args[0], nil, &resp); err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	return cmd
}

// NewClaimableCmd creates the claimability query command
func NewClaimableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claimable <handle>...",
		Short: "Check whether requests are currently claimable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handles := make([]uint64, len(args))
			for i, arg := range args {
				n, err := strconv.ParseUint(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid handle %q", arg)
				}
				handles[i] = n
			}

			var resp struct {
				Claimable []bool `json:"claimable"`
			}
			if err := apiCall("POST", "/v1/claimability", map[string]any{"handles": handles}, &resp); err != nil {
				return err
			}
			for i, ok := range resp.Claimable {
				fmt.Printf("%d: %v\n", handles[i], ok)
			}
			return nil
		},
	}
	return cmd
}

// NewBalanceCmd creates the balance query command
func NewBalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "Show an address's withdrawable credit balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			if err := apiCall("GET", "/v1/balances/"+args[0], nil, &resp); err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
	return cmd
}
