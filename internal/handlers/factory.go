package handlers

import (
	"context"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
	dserrors "github.com/EconomistDigitalSolutions/aws-key-rotator/internal/errors"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/rotator"
)

// Build constructs the propagation handler the rotator will invoke,
// composing multiple configured handlers into one.
func Build(ctx context.Context, defs []config.Handler, awsCfg config.AWS) (rotator.Handler, error) {
	if len(defs) == 0 {
		return nil, dserrors.ConfigError{
			Field:      "handlers",
			Message:    "at least one handler is required",
			Suggestion: "Add a handler entry, e.g. {type: secretsmanager, secret_name: ci/aws-access-key}",
		}
	}

	var hs []rotator.Handler
	for _, def := range defs {
		h, err := build(ctx, def, awsCfg)
		if err != nil {
			return nil, err
		}
		hs = append(hs, h)
	}
	return NewMulti(hs...), nil
}

func build(ctx context.Context, def config.Handler, awsCfg config.AWS) (rotator.Handler, error) {
	switch def.Type {
	case "secretsmanager":
		return NewSecretsManagerHandler(ctx, def.String("secret_name"), awsCfg)
	case "ssm":
		return NewSSMHandler(ctx, def.String("path"), awsCfg)
	case "keyring":
		return NewKeyringHandler(def.String("service"))
	case "webhook":
		return NewWebhookHandler(def.String("url"), def.String("token"))
	case "credentials-file":
		return NewCredentialsFileHandler(def.String("path"), def.String("profile"))
	default:
		return nil, dserrors.ConfigError{
			Field:      "handlers",
			Value:      def.Type,
			Message:    "unknown handler type",
			Suggestion: "Valid types: secretsmanager, ssm, keyring, webhook, credentials-file",
		}
	}
}
