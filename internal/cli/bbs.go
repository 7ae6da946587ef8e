package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the BBS is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			ok, err := c.Ping(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("bbs is not available")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "BBS is available.")
			return nil
		},
	}
}

func newDomainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domain",
		Short: "Manage BBS domains",
	}

	var ttl time.Duration
	upsert := &cobra.Command{
		Use:   "upsert <domain>",
		Short: "Mark a domain fresh for a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.UpsertDomain(cmd.Context(), args[0], ttl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Domain %s fresh for %s.\n", args[0], ttl)
			return nil
		},
	}
	upsert.Flags().DurationVar(&ttl, "ttl", 2*time.Minute, "Freshness period; 0 keeps the domain fresh forever")

	cmd.AddCommand(upsert)
	return cmd
}
