package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/radieske/bingo-wallet/internal/walletclient"
)

var (
	configPath  string
	profileName string
	baseURL     string
	adminToken  string
)

var rootCmd = &cobra.Command{
	Use:           "walletctl",
	Short:         "Operate the bingo wallet service through its admin API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", walletclient.DefaultProfilePath(), "profile file (TOML)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (defaults to current)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "override the profile base_url")
	rootCmd.PersistentFlags().StringVar(&adminToken, "token", os.Getenv("WALLET_ADMIN_TOKEN"), "override the profile admin_token")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// client monta o cliente a partir do perfil e dos overrides de linha de comando
func client() (*walletclient.Client, error) {
	p, err := walletclient.LoadProfile(configPath, profileName)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		p.BaseURL = baseURL
	}
	if adminToken != "" {
		p.AdminToken = adminToken
	}
	return walletclient.New(p.BaseURL, p.AdminToken, p.Timeout), nil
}

func withClient(fn func(ctx context.Context, c *walletclient.Client, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		out, err := fn(ctx, c, args)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}
