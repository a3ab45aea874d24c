package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/rotator"
)

// SecretsManagerAPI defines the interface for the AWS Secrets Manager
// operations used by the handler. This allows for mocking in tests
type SecretsManagerAPI interface {
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
}

// SecretsManagerHandler writes the new key pair as a JSON secret value
// in AWS Secrets Manager, creating the secret on first rotation.
type SecretsManagerHandler struct {
	secretName string
	client     SecretsManagerAPI
}

// SecretsManagerOption is a functional option for configuring the handler
type SecretsManagerOption func(*SecretsManagerHandler)

// WithSecretsManagerClient sets a custom client (for testing)
func WithSecretsManagerClient(client SecretsManagerAPI) SecretsManagerOption {
	return func(h *SecretsManagerHandler) {
		h.client = client
	}
}

// NewSecretsManagerHandler creates a Secrets Manager propagation handler.
func NewSecretsManagerHandler(ctx context.Context, secretName string, awsCfg config.AWS, opts ...SecretsManagerOption) (*SecretsManagerHandler, error) {
	if secretName == "" {
		return nil, fmt.Errorf("secretsmanager handler requires 'secret_name'")
	}

	h := &SecretsManagerHandler{secretName: secretName}
	for _, opt := range opts {
		opt(h)
	}

	if h.client == nil {
		cfg, err := awsCfg.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		var clientOpts []func(*secretsmanager.Options)
		if awsCfg.Endpoint != "" {
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = aws.String(awsCfg.Endpoint)
			})
		}
		h.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return h, nil
}

// Name returns the handler name
func (h *SecretsManagerHandler) Name() string {
	return "secretsmanager"
}

// Handle stores the key pair under the configured secret name.
func (h *SecretsManagerHandler) Handle(ctx context.Context, key *rotator.Key) error {
	return openSecret(key, func(secret string) error {
		payload, err := json.Marshal(map[string]string{
			"access_key_id":     key.ID,
			"secret_access_key": secret,
		})
		if err != nil {
			return err
		}
		value := string(payload)

		_, err = h.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
			SecretId:     aws.String(h.secretName),
			SecretString: aws.String(value),
		})
		if err == nil {
			return nil
		}

		var notFound *types.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return fmt.Errorf("PutSecretValue: %w", err)
		}

		// First rotation for this target
		_, err = h.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
			Name:         aws.String(h.secretName),
			SecretString: aws.String(value),
			Description:  aws.String(fmt.Sprintf("Access key for IAM user %s, managed by keyrotator", key.Identity)),
		})
		if err != nil {
			return fmt.Errorf("CreateSecret: %w", err)
		}
		return nil
	})
}
