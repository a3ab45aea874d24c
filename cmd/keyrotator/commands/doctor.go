package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
	dserrors "github.com/EconomistDigitalSolutions/aws-key-rotator/internal/errors"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/iam"
)

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check AWS credentials and rotation permissions",
		Long: `Verify that the current AWS credentials resolve to a principal and
that the access keys of the configured identity can be listed. Run
this before wiring keyrotator into a pipeline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cfg)
		},
	}

	return cmd
}

func runDoctor(cfg *config.Config) error {
	if err := cfg.Load(); err != nil {
		return err
	}
	def := cfg.Definition
	if def.Identity == "" {
		return dserrors.UserError{
			Message:    "IAM user name is required",
			Suggestion: "Set 'identity' in the config file",
		}
	}
	ctx := context.Background()

	who, err := iam.WhoAmI(ctx, def.AWS, nil)
	if err != nil {
		return dserrors.UserError{
			Message:    "AWS credentials are not usable",
			Details:    err.Error(),
			Suggestion: "Configure AWS credentials: 'aws configure' or set AWS_PROFILE",
			Err:        err,
		}
	}
	cfg.Logger.Info("Credentials OK: %s (account %s)", who.ARN, who.Account)

	client, err := iam.NewClient(ctx, def.AWS)
	if err != nil {
		return err
	}
	keys, err := client.ListKeys(ctx, def.Identity)
	if err != nil {
		return dserrors.IAMError("listKeys", def.Identity, err)
	}
	cfg.Logger.Info("Identity %s has %d access keys", def.Identity, len(keys))

	if len(keys) == 2 {
		cfg.Logger.Warn("The user is at the two-key limit; the next rotation will delete inactive keys first")
	}
	for _, h := range def.Handlers {
		cfg.Logger.Info("Handler configured: %s", h.Type)
	}
	return nil
}
