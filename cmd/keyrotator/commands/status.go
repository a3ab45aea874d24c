package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
	dserrors "github.com/EconomistDigitalSolutions/aws-key-rotator/internal/errors"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/iam"
)

func NewStatusCommand(cfg *config.Config) *cobra.Command {
	var identity string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List the IAM user's current access keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, cfg, identity)
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "", "IAM user name (defaults to 'identity' from the config file)")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *config.Config, identity string) error {
	if err := cfg.Load(); err != nil {
		return err
	}
	if identity == "" {
		identity = cfg.Definition.Identity
	}
	if identity == "" {
		return dserrors.UserError{
			Message:    "IAM user name is required",
			Suggestion: "Pass --identity or set 'identity' in the config file",
		}
	}

	ctx := context.Background()
	client, err := iam.NewClient(ctx, cfg.Definition.AWS)
	if err != nil {
		return err
	}

	keys, err := client.ListKeys(ctx, identity)
	if err != nil {
		return dserrors.IAMError("listKeys", identity, err)
	}

	out := cmd.OutOrStdout()
	if len(keys) == 0 {
		fmt.Fprintf(out, "No access keys for %s\n", identity)
		return nil
	}

	fmt.Fprintf(out, "%-24s %s\n", "ACCESS KEY ID", "STATUS")
	for _, k := range keys {
		fmt.Fprintf(out, "%-24s %s\n", k.ID, k.Status)
	}
	return nil
}
