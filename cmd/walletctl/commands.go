package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/radieske/bingo-wallet/internal/walletclient"
)

func init() {
	walletCmd.AddCommand(walletShowCmd, walletLockCmd, walletUnlockCmd, walletLimitsCmd, walletStatusCmd)
	transferCmd.AddCommand(transferPendingCmd, transferApproveCmd, transferRejectCmd, transferForceCmd)
	rootCmd.AddCommand(walletCmd, transferCmd, bonusCmd, logsCmd)

	transferPendingCmd.Flags().Int("limit", 50, "max transfers to list")
	transferApproveCmd.Flags().String("notes", "", "review notes")
	transferRejectCmd.Flags().String("notes", "", "review notes")
	logsCmd.Flags().Int("limit", 50, "max entries")
	logsCmd.Flags().String("before", "", "cursor from a previous page")
}

var walletCmd = &cobra.Command{Use: "wallet", Short: "Inspect and secure wallets"}

var walletShowCmd = &cobra.Command{
	Use:   "show OWNER_ID",
	Short: "Show balance, limits and lock state",
	Args:  cobra.ExactArgs(1),
	RunE: withClient(func(ctx context.Context, c *walletclient.Client, args []string) (any, error) {
		return c.Wallet(ctx, args[0])
	}),
}

var walletLockCmd = &cobra.Command{
	Use:   "lock OWNER_ID REASON",
	Short: "Lock a wallet",
	Args:  cobra.ExactArgs(2),
	RunE: withClient(func(ctx context.Context, c *walletclient.Client, args []string) (any, error) {
		return c.Lock(ctx, args[0], args[1])
	}),
}

var walletUnlockCmd = &cobra.Command{
	Use:   "unlock OWNER_ID",
	Short: "Unlock a wallet",
	Args:  cobra.ExactArgs(1),
	RunE: withClient(func(ctx context.Context, c *walletclient.Client, args []string) (any, error) {
		return c.Unlock(ctx, args[0])
	}),
}

var walletLimitsCmd = &cobra.Command{
	Use:   "limits OWNER_ID DAILY PER_TRANSFER",
	Short: "Set daily and per-transfer limits (decimal amounts)",
	Args:  cobra.ExactArgs(3),
	RunE: withClient(func(ctx context.Context, c *walletclient.Client, args []string) (any, error) {
		return c.SetLimits(ctx, args[0], args[1], args[2])
	}),
}

var walletStatusCmd = &cobra.Command{
	Use:       "status OWNER_ID active|suspended|closed [REASON]",
	Short:     "Change wallet status",
	Args:      cobra.RangeArgs(2, 3),
	ValidArgs: []string{"active", "suspended", "closed"},
	RunE: withClient(func(ctx context.Context, c *walletclient.Client, args []string) (any, error) {
		reason := ""
		if len(args) == 3 {
			reason = args[2]
		}
		return c.SetStatus(ctx, args[0], args[1], reason)
	}),
}

var transferCmd = &cobra.Command{Use: "transfer", Short: "Review and force transfers"}

var transferPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List transfers waiting for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withClient(func(ctx context.Context, c *walletclient.Client, _ []string) (any, error) {
			return c.PendingTransfers(ctx, limit)
		})(cmd, args)
	},
}

var transferApproveCmd = &cobra.Command{
	Use:   "approve TRANSFER_ID",
	Short: "Approve and execute a pending transfer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, _ := cmd.Flags().GetString("notes")
		return withClient(func(ctx context.Context, c *walletclient.Client, args []string) (any, error) {
			return c.Approve(ctx, args[0], notes)
		})(cmd, args)
	},
}

var transferRejectCmd = &cobra.Command{
	Use:   "reject TRANSFER_ID",
	Short: "Reject a pending transfer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, _ := cmd.Flags().GetString("notes")
		return withClient(func(ctx context.Context, c *walletclient.Client, args []string) (any, error) {
			return c.Reject(ctx, args[0], notes)
		})(cmd, args)
	},
}

var transferForceCmd = &cobra.Command{
	Use:   "force FROM TO AMOUNT REASON",
	Short: "Admin transfer, bypassing daily limit and fraud review",
	Args:  cobra.ExactArgs(4),
	RunE: withClient(func(ctx context.Context, c *walletclient.Client, args []string) (any, error) {
		return c.AdminTransfer(ctx, args[0], args[1], args[2], args[3])
	}),
}

var bonusCmd = &cobra.Command{
	Use:   "bonus OWNER_ID AMOUNT REASON",
	Short: "Grant an admin bonus",
	Args:  cobra.ExactArgs(3),
	RunE: withClient(func(ctx context.Context, c *walletclient.Client, args []string) (any, error) {
		return c.AddBonus(ctx, args[0], args[1], args[2])
	}),
}

var logsCmd = &cobra.Command{
	Use:   "logs [OWNER_ID]",
	Short: "Page through the security log",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		before, _ := cmd.Flags().GetString("before")
		owner := ""
		if len(args) == 1 {
			owner = args[0]
		}
		return withClient(func(ctx context.Context, c *walletclient.Client, _ []string) (any, error) {
			return c.SecurityLogs(ctx, owner, limit, before)
		})(cmd, args)
	},
}
