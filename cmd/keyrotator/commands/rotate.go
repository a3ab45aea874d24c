package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
	dserrors "github.com/EconomistDigitalSolutions/aws-key-rotator/internal/errors"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/handlers"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/iam"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/rotator"
)

func NewRotateCommand(cfg *config.Config) *cobra.Command {
	var (
		identity string
		dryRun   bool
		metrics  bool
	)

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the IAM user's access keys",
		Long: `Rotate all access keys of one IAM user: create a new key, deliver it
to every configured handler, then delete the keys that existed before.

If the user is already at the two-key limit (e.g. a previous run was
interrupted), the inactive keys are deleted and creation is retried
once. Active keys are never deleted until the new key has been
delivered successfully.

Examples:
  # Rotate the identity named in keyrotator.yaml
  keyrotator rotate

  # Rotate a specific user
  keyrotator rotate --identity ci-deploy-bot

  # Show what would happen without touching anything
  keyrotator rotate --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRotate(cfg, identity, dryRun, metrics)
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "", "IAM user name (defaults to 'identity' from the config file)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List current keys and configured handlers without rotating")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Register Prometheus rotation metrics")

	return cmd
}

func runRotate(cfg *config.Config, identity string, dryRun, metrics bool) error {
	if err := cfg.Load(); err != nil {
		return err
	}
	def := cfg.Definition
	if identity == "" {
		identity = def.Identity
	}
	if identity == "" {
		return dserrors.UserError{
			Message:    "IAM user name is required",
			Suggestion: "Pass --identity or set 'identity' in the config file",
		}
	}

	ctx := context.Background()

	client, err := iam.NewClient(ctx, def.AWS)
	if err != nil {
		return err
	}

	if dryRun {
		keys, err := client.ListKeys(ctx, identity)
		if err != nil {
			return dserrors.IAMError("listKeys", identity, err)
		}
		cfg.Logger.Info("Would rotate %d existing keys for %s:", len(keys), identity)
		for _, k := range keys {
			cfg.Logger.Info("  %s (%s)", k.ID, k.Status)
		}
		for _, h := range def.Handlers {
			cfg.Logger.Info("Would deliver the new key via %s handler", h.Type)
		}
		return nil
	}

	handler, err := handlers.Build(ctx, def.Handlers, def.AWS)
	if err != nil {
		return err
	}

	if metrics {
		rotator.InitMetrics()
	}

	return rotator.New(client, handler, cfg.Logger).RotateKeys(ctx, identity)
}
