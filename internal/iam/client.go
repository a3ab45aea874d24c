package iam

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/rotator"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/secure"
)

// AccessKeyAPI defines the interface for the IAM access key operations
// This allows for mocking in tests
type AccessKeyAPI interface {
	ListAccessKeys(ctx context.Context, params *iam.ListAccessKeysInput, optFns ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error)
	CreateAccessKey(ctx context.Context, params *iam.CreateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.CreateAccessKeyOutput, error)
	DeleteAccessKey(ctx context.Context, params *iam.DeleteAccessKeyInput, optFns ...func(*iam.Options)) (*iam.DeleteAccessKeyOutput, error)
}

// Client implements the rotator's key service capability on AWS IAM.
type Client struct {
	api AccessKeyAPI
}

// ClientOption is a functional option for configuring the client
type ClientOption func(*Client)

// WithAPI sets a custom IAM API implementation (for testing)
func WithAPI(api AccessKeyAPI) ClientOption {
	return func(c *Client) {
		c.api = api
	}
}

// NewClient creates an IAM client from the given settings. Without a
// WithAPI option it loads the default AWS credential chain.
func NewClient(ctx context.Context, cfg config.AWS, opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.api != nil {
		return c, nil
	}

	awsCfg, err := cfg.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*iam.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *iam.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	c.api = iam.NewFromConfig(awsCfg, clientOpts...)
	return c, nil
}

// ListKeys returns metadata for every access key of the given user.
func (c *Client) ListKeys(ctx context.Context, identity string) ([]rotator.KeySummary, error) {
	var keys []rotator.KeySummary
	var marker *string

	for {
		out, err := c.api.ListAccessKeys(ctx, &iam.ListAccessKeysInput{
			UserName: aws.String(identity),
			Marker:   marker,
		})
		if err != nil {
			return nil, fmt.Errorf("ListAccessKeys: %w", err)
		}

		for _, md := range out.AccessKeyMetadata {
			keys = append(keys, rotator.KeySummary{
				ID:     aws.ToString(md.AccessKeyId),
				Status: toKeyStatus(md.Status),
			})
		}

		if !out.IsTruncated {
			return keys, nil
		}
		marker = out.Marker
	}
}

// CreateKey creates a new access key for the user. The secret material
// is moved into a protected buffer immediately; the SDK copy is not
// retained by the client.
func (c *Client) CreateKey(ctx context.Context, identity string) (*rotator.Key, error) {
	out, err := c.api.CreateAccessKey(ctx, &iam.CreateAccessKeyInput{
		UserName: aws.String(identity),
	})
	if err != nil {
		return nil, fmt.Errorf("CreateAccessKey: %w", err)
	}
	if out.AccessKey == nil || out.AccessKey.AccessKeyId == nil || out.AccessKey.SecretAccessKey == nil {
		return nil, fmt.Errorf("CreateAccessKey: response missing key material")
	}

	return &rotator.Key{
		ID:       aws.ToString(out.AccessKey.AccessKeyId),
		Identity: identity,
		Secret:   secure.NewBuffer([]byte(aws.ToString(out.AccessKey.SecretAccessKey))),
	}, nil
}

// DeleteKey deletes one access key of the user by ID.
func (c *Client) DeleteKey(ctx context.Context, identity, keyID string) error {
	_, err := c.api.DeleteAccessKey(ctx, &iam.DeleteAccessKeyInput{
		UserName:    aws.String(identity),
		AccessKeyId: aws.String(keyID),
	})
	if err != nil {
		return fmt.Errorf("DeleteAccessKey: %w", err)
	}
	return nil
}

func toKeyStatus(s types.StatusType) rotator.KeyStatus {
	if s == types.StatusTypeInactive {
		return rotator.StatusInactive
	}
	return rotator.StatusActive
}
