package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/diegobridge/pkg/bbs"
)

func newLRPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lrp",
		Short: "Desire and manage long-running processes",
	}
	cmd.AddCommand(
		newLRPDesireCmd(a),
		newLRPGetCmd(a),
		newLRPScaleCmd(a),
		newLRPRemoveCmd(a),
		newLRPListCmd(a),
		newLRPInstancesCmd(a),
		newLRPRetireCmd(a),
	)
	return cmd
}

func newLRPDesireCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "desire <request.yaml>",
		Short: "Build a desired LRP and submit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var f processFile
			if err := readRequest(args[0], &f); err != nil {
				return err
			}
			if f.Stack == "" {
				f.Stack = a.cfg.DefaultStack
			}
			blobs, err := a.blobstore()
			if err != nil {
				return err
			}
			details, err := processDetails(ctx, &f, blobs)
			if err != nil {
				return err
			}
			lrp, err := a.builder().ProcessRecipe(details)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), lrp); err != nil {
				return err
			}
			if dryRun {
				return nil
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			return c.DesireLRP(ctx, lrp)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the desired LRP without submitting it")
	return cmd
}

func newLRPGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <process-guid>",
		Short: "Show a desired LRP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			lrp, err := c.DesiredLRPByProcessGUID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), lrp)
		},
	}
}

func newLRPScaleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scale <process-guid> <instances>",
		Short: "Change the instance count of a desired LRP",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid instance count %q", args[1])
			}
			instances := int32(n)

			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.UpdateDesiredLRP(cmd.Context(), args[0], &bbs.DesiredLRPUpdate{Instances: &instances}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scaled %s to %d instances.\n", args[0], instances)
			return nil
		},
	}
}

func newLRPRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <process-guid>",
		Short: "Stop and remove a desired LRP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			if err := c.RemoveDesiredLRP(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", args[0])
			return nil
		},
	}
}

func newLRPListCmd(a *app) *cobra.Command {
	var domain string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List desired LRPs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			infos, err := c.DesiredLRPSchedulingInfos(cmd.Context(), domain)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintln(w, "No desired LRPs found.")
				return nil
			}
			fmt.Fprintf(w, "%-40s  %-16s  %-9s  %s\n", "PROCESS GUID", "DOMAIN", "INSTANCES", "ANNOTATION")
			fmt.Fprintf(w, "%-40s  %-16s  %-9s  %s\n", "------------", "------", "---------", "----------")
			for _, info := range infos {
				var guid, dom string
				if info.DesiredLRPKey != nil {
					guid, dom = info.DesiredLRPKey.ProcessGuid, info.DesiredLRPKey.Domain
				}
				fmt.Fprintf(w, "%-40s  %-16s  %-9d  %s\n", guid, dom, info.Instances, info.Annotation)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "", "Only LRPs in this domain")
	return cmd
}

func newLRPInstancesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "instances <process-guid>",
		Short: "List the running instances of a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			lrps, err := c.ActualLRPsByProcessGUID(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(lrps) == 0 {
				fmt.Fprintln(w, "No instances found.")
				return nil
			}
			fmt.Fprintf(w, "%-5s  %-10s  %-36s  %-7s  %s\n", "INDEX", "STATE", "CELL", "CRASHES", "SINCE")
			fmt.Fprintf(w, "%-5s  %-10s  %-36s  %-7s  %s\n", "-----", "-----", "----", "-------", "-----")
			for _, lrp := range lrps {
				var index int32
				if lrp.ActualLRPKey != nil {
					index = lrp.ActualLRPKey.Index
				}
				cell := "-"
				if lrp.ActualLRPInstanceKey != nil && lrp.ActualLRPInstanceKey.CellId != "" {
					cell = lrp.ActualLRPInstanceKey.CellId
				}
				fmt.Fprintf(w, "%-5d  %-10s  %-36s  %-7d  %s\n", index, lrp.State, cell, lrp.CrashCount, since(lrp.Since))
			}
			return nil
		},
	}
}

func newLRPRetireCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "retire <process-guid> <index>",
		Short: "Stop one instance of a process",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil || index < 0 {
				return fmt.Errorf("invalid index %q", args[1])
			}
			c, err := a.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			// The key must carry the domain the BBS stored the instance under.
			lrp, err := c.DesiredLRPByProcessGUID(ctx, args[0])
			if err != nil {
				return err
			}
			if lrp == nil {
				return fmt.Errorf("desired lrp %s not found", args[0])
			}
			key := &bbs.ActualLRPKey{ProcessGuid: args[0], Index: int32(index), Domain: lrp.Domain}
			if err := c.RetireActualLRP(ctx, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retired %s/%d.\n", args[0], index)
			return nil
		},
	}
}
