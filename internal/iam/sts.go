package iam

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
)

// STSAPI defines the interface for the STS operations used by the
// doctor command
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// CallerIdentity describes the principal the current credentials
// resolve to.
type CallerIdentity struct {
	Account string
	ARN     string
	UserID  string
}

// WhoAmI resolves the caller identity for the configured credentials.
// A nil api means the default credential chain is used.
func WhoAmI(ctx context.Context, cfg config.AWS, api STSAPI) (*CallerIdentity, error) {
	if api == nil {
		awsCfg, err := cfg.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		var clientOpts []func(*sts.Options)
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, func(o *sts.Options) {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			})
		}
		api = sts.NewFromConfig(awsCfg, clientOpts...)
	}

	out, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("GetCallerIdentity: %w", err)
	}

	return &CallerIdentity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}, nil
}
