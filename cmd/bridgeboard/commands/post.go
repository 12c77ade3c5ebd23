package commands

import (
	"github.com/spf13/cobra"
)

// NewPostCmd creates the post command
func NewPostCmd() *cobra.Command {
	var (
		requestor       string
		payloadRef      string
		inclusionReward string
		tallyReward     string
		deposit         string
		gasPrice        string
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a new data request with escrowed rewards",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Handle uint64 `json:"handle"`
			}
			err := apiCall("POST", "/v1/requests", map[string]string{
				"requestor":        requestor,
				"payload_ref":      payloadRef,
				"inclusion_reward": inclusionReward,
				"tally_reward":     tallyReward,
				"deposited_value":  deposit,
				"gas_price":        gasPrice,
			}, &resp)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&requestor, "requestor", "", "Requestor address (0x...)")
	cmd.Flags().StringVar(&payloadRef, "payload-ref", "", "Payload reference")
	cmd.Flags().StringVar(&inclusionReward, "inclusion-reward", "0", "Inclusion reward in wei")
	cmd.Flags().StringVar(&tallyReward, "tally-reward", "0", "Tally reward in wei")
	cmd.Flags().StringVar(&deposit, "deposit", "0", "Total deposited value in wei")
	cmd.Flags().StringVar(&gasPrice, "gas-price", "1", "Declared gas price in wei")
	cmd.MarkFlagRequired("requestor")
	cmd.MarkFlagRequired("payload-ref")

	return cmd
}

// NewUpgradeCmd creates the upgrade command
func NewUpgradeCmd() *cobra.Command {
	var (
		handle       string
		addInclusion string
		addTally     string
		addedValue   string
		gasPrice     string
	)

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Add escrowed value to an existing request's rewards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return apiCall("POST", "/v1/requests/"+handle+"/reward", map[string]string{
				"add_inclusion": addInclusion,
				"add_tally":     addTally,
				"added_value":   addedValue,
				"gas_price":     gasPrice,
			}, nil)
		},
	}

	cmd.Flags().StringVar(&handle, "handle", "", "Request handle")
	cmd.Flags().StringVar(&addInclusion, "add-inclusion", "0", "Inclusion reward increment in wei")
	cmd.Flags().StringVar(&addTally, "add-tally", "0", "Tally reward increment in wei")
	cmd.Flags().StringVar(&addedValue, "added-value", "0", "Total added value in wei")
	cmd.Flags().StringVar(&gasPrice, "gas-price", "1", "Declared gas price in wei")
	cmd.MarkFlagRequired("handle")

	return cmd
}
