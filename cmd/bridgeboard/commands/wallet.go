package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bridgeboard/bridgeboard/internal/identity"
)

// NewWalletCmd creates the wallet command group
func NewWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Manage the reporter wallet",
		Long: `Manage the secp256k1 wallet a reporter claims and reports with.

The wallet is stored as an encrypted keystore file (geth V3 format).
These commands operate directly on keystore files — no daemon needed.

Examples:
  bridgeboard wallet create   # Generate a new wallet
  bridgeboard wallet import   # Import from a private key
  bridgeboard wallet show     # Show address and keystore path`,
	}

	cmd.AddCommand(newWalletCreateCmd())
	cmd.AddCommand(newWalletImportCmd())
	cmd.AddCommand(newWalletShowCmd())

	return cmd
}

func defaultKeystoreDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".bridgeboard", "keystore")
}

func newWalletCreateCmd() *cobra.Command {
	var keystoreDir string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new reporter wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := identity.LoadReporterWallet(keystoreDir)
			if err != nil {
				return fmt.Errorf("failed to check keystore: %w", err)
			}
			if existing != nil {
				return fmt.Errorf("wallet already exists at %s (address: %s)", keystoreDir, existing.Address().Hex())
			}

			password, err := promptNewPassword()
			if err != nil {
				return err
			}

			rw, err := identity.CreateReporterWallet(keystoreDir, password)
			if err != nil {
				return fmt.Errorf("failed to create wallet: %w", err)
			}

			return printJSON(map[string]string{
				"address":  rw.Address().Hex(),
				"keystore": keystoreDir,
			})
		},
	}

	cmd.Flags().StringVar(&keystoreDir, "keystore", defaultKeystoreDir(), "Path to keystore directory")
	return cmd
}

func newWalletImportCmd() *cobra.Command {
	var keystoreDir string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a reporter wallet from a private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := identity.LoadReporterWallet(keystoreDir)
			if err != nil {
				return fmt.Errorf("failed to check keystore: %w", err)
			}
			if existing != nil {
				return fmt.Errorf("wallet already exists at %s (address: %s)", keystoreDir, existing.Address().Hex())
			}

			fmt.Fprint(os.Stderr, "Enter private key (hex, with or without 0x prefix): ")
			input, err := readPasswordNoEcho()
			if err != nil {
				return fmt.Errorf("failed to read private key: %w", err)
			}
			fmt.Fprintln(os.Stderr)

			privKeyHex := strings.TrimPrefix(input, "0x")
			if len(privKeyHex) != 64 {
				return fmt.Errorf("private key must be 64 hex characters (32 bytes), got %d", len(privKeyHex))
			}

			password, err := promptNewPassword()
			if err != nil {
				return err
			}

			rw, err := identity.ImportReporterWallet(keystoreDir, privKeyHex, password)
			if err != nil {
				return fmt.Errorf("failed to import wallet: %w", err)
			}

			return printJSON(map[string]string{
				"address":  rw.Address().Hex(),
				"keystore": keystoreDir,
			})
		},
	}

	cmd.Flags().StringVar(&keystoreDir, "keystore", defaultKeystoreDir(), "Path to keystore directory")
	return cmd
}

func newWalletShowCmd() *cobra.Command {
	var keystoreDir string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show wallet address and keystore path",
		Long:  "Display the wallet address and keystore directory. No password needed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rw, err := identity.LoadReporterWallet(keystoreDir)
			if err != nil {
				return fmt.Errorf("failed to load wallet: %w", err)
			}
			if rw == nil {
				return fmt.Errorf("no wallet found in %s (create one with: bridgeboard wallet create)", keystoreDir)
			}

			return printJSON(map[string]string{
				"address":  rw.Address().Hex(),
				"keystore": rw.KeystoreDir(),
			})
		},
	}

	cmd.Flags().StringVar(&keystoreDir, "keystore", defaultKeystoreDir(), "Path to keystore directory")
	return cmd
}

// promptNewPassword reads and confirms a new wallet password.
func promptNewPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Enter wallet password: ")
	password, err := readPasswordNoEcho()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(os.Stderr)

	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}

	fmt.Fprint(os.Stderr, "Confirm wallet password: ")
	confirm, err := readPasswordNoEcho()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Fprintln(os.Stderr)

	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func readPasswordNoEcho() (string, error) {
	password, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	return string(password), nil
}
