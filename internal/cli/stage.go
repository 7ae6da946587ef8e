package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/diegobridge/internal/recipe"
	"github.com/me/diegobridge/pkg/model"
)

func newStageCmd(a *app) *cobra.Command {
	var dryRun, noRecord bool
	cmd := &cobra.Command{
		Use:   "stage <request.yaml>",
		Short: "Build a staging task and desire it on the BBS",
		Long: "Build the staging task definition for a request file and print it as JSON.\n" +
			"Unless --dry-run is set the task is desired on the BBS, and unless --no-record\n" +
			"is set a STAGING build is recorded so the completion callback can finish it.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var f stagingFile
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
			details, err := stagingDetails(ctx, &f, blobs)
			if err != nil {
				return err
			}
			req, err := a.builder().StagingRecipe(details)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), req); err != nil {
				return err
			}
			if dryRun {
				return nil
			}

			c, err := a.client()
			if err != nil {
				return err
			}

			if noRecord {
				return c.DesireTask(ctx, req)
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			now := time.Now().UTC()
			build := &model.Build{
				ID:            f.StagingGUID,
				AppGUID:       f.AppGUID,
				PackageGUID:   f.PackageGUID,
				LifecycleType: string(details.Kind),
				Stack:         f.Stack,
				State:         model.BuildStateStaging,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			droplet := &model.Droplet{
				ID:            f.DropletGUID,
				AppGUID:       f.AppGUID,
				State:         model.DropletStateStaging,
				LifecycleType: string(details.Kind),
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := st.CreateBuild(ctx, build, droplet); err != nil {
				return fmt.Errorf("record build: %w", err)
			}

			if err := c.DesireTask(ctx, req); err != nil {
				if ferr := st.FailBuild(ctx, build.ID, model.StagingErrorID, err.Error()); ferr != nil {
					return errors.Join(err, ferr)
				}
				return err
			}
			a.logger.Info("staging desired", "build_id", build.ID, "domain", recipe.StagingDomain)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the task definition without desiring it")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "Desire the task without recording a build")
	return cmd
}
