package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
)

type fakeSSM struct {
	puts    []*ssm.PutParameterInput
	failOn  string // parameter name that errors
	failErr error
}

func (f *fakeSSM) PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	if f.failOn != "" && aws.ToString(params.Name) == f.failOn {
		return nil, f.failErr
	}
	f.puts = append(f.puts, params)
	return &ssm.PutParameterOutput{}, nil
}

func TestSSMHandlerWritesBothParameters(t *testing.T) {
	fake := &fakeSSM{}
	h, err := NewSSMHandler(context.Background(), "/ci/aws/", config.AWS{}, WithSSMClient(fake))
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), testKey(t)))
	require.Len(t, fake.puts, 2)

	// Secret half lands first and as a SecureString.
	assert.Equal(t, "/ci/aws/secret_access_key", aws.ToString(fake.puts[0].Name))
	assert.Equal(t, types.ParameterTypeSecureString, fake.puts[0].Type)
	assert.Equal(t, "wJalrXUtnFEMI/K7MDENG", aws.ToString(fake.puts[0].Value))
	assert.True(t, aws.ToBool(fake.puts[0].Overwrite))

	assert.Equal(t, "/ci/aws/access_key_id", aws.ToString(fake.puts[1].Name))
	assert.Equal(t, types.ParameterTypeString, fake.puts[1].Type)
	assert.Equal(t, "AKIANEW0001", aws.ToString(fake.puts[1].Value))
}

func TestSSMHandlerStopsAfterSecretWriteFailure(t *testing.T) {
	fake := &fakeSSM{
		failOn:  "/ci/aws/secret_access_key",
		failErr: errors.New("ParameterLimitExceeded"),
	}
	h, err := NewSSMHandler(context.Background(), "/ci/aws", config.AWS{}, WithSSMClient(fake))
	require.NoError(t, err)

	err = h.Handle(context.Background(), testKey(t))
	require.Error(t, err)
	assert.Empty(t, fake.puts, "access_key_id must not be written when the secret write failed")
}

func TestSSMHandlerRequiresPath(t *testing.T) {
	_, err := NewSSMHandler(context.Background(), "", config.AWS{}, WithSSMClient(&fakeSSM{}))
	assert.Error(t, err)
}
