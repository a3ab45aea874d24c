package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/rotator"
)

// SSMAPI defines the interface for the Parameter Store operations used
// by the handler. This allows for mocking in tests
type SSMAPI interface {
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMHandler writes the new key pair to two parameters under a common
// path: <path>/access_key_id and <path>/secret_access_key. The secret
// half is stored as a SecureString.
type SSMHandler struct {
	path   string
	client SSMAPI
}

// SSMOption is a functional option for configuring the handler
type SSMOption func(*SSMHandler)

// WithSSMClient sets a custom client (for testing)
func WithSSMClient(client SSMAPI) SSMOption {
	return func(h *SSMHandler) {
		h.client = client
	}
}

// NewSSMHandler creates a Parameter Store propagation handler.
func NewSSMHandler(ctx context.Context, path string, awsCfg config.AWS, opts ...SSMOption) (*SSMHandler, error) {
	if path == "" {
		return nil, fmt.Errorf("ssm handler requires 'path'")
	}

	h := &SSMHandler{path: strings.TrimRight(path, "/")}
	for _, opt := range opts {
		opt(h)
	}

	if h.client == nil {
		cfg, err := awsCfg.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		var clientOpts []func(*ssm.Options)
		if awsCfg.Endpoint != "" {
			clientOpts = append(clientOpts, func(o *ssm.Options) {
				o.BaseEndpoint = aws.String(awsCfg.Endpoint)
			})
		}
		h.client = ssm.NewFromConfig(cfg, clientOpts...)
	}

	return h, nil
}

// Name returns the handler name
func (h *SSMHandler) Name() string {
	return "ssm"
}

// Handle writes both halves of the key pair, secret first so a failure
// between the two writes never leaves a fresh key id pointing at a
// stale secret.
func (h *SSMHandler) Handle(ctx context.Context, key *rotator.Key) error {
	return openSecret(key, func(secret string) error {
		_, err := h.client.PutParameter(ctx, &ssm.PutParameterInput{
			Name:      aws.String(h.path + "/secret_access_key"),
			Value:     aws.String(secret),
			Type:      types.ParameterTypeSecureString,
			Overwrite: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("PutParameter(secret_access_key): %w", err)
		}

		_, err = h.client.PutParameter(ctx, &ssm.PutParameterInput{
			Name:      aws.String(h.path + "/access_key_id"),
			Value:     aws.String(key.ID),
			Type:      types.ParameterTypeString,
			Overwrite: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("PutParameter(access_key_id): %w", err)
		}
		return nil
	})
}
