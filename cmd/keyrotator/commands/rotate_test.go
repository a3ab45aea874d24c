package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/config"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/logging"
)

func missingConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Path:   filepath.Join(t.TempDir(), "keyrotator.yaml"),
		Logger: logging.New(false, true),
	}
}

func TestRotateCommandFlags(t *testing.T) {
	cmd := NewRotateCommand(missingConfig(t))

	assert.NotNil(t, cmd.Flags().Lookup("identity"))
	assert.NotNil(t, cmd.Flags().Lookup("dry-run"))
	assert.NotNil(t, cmd.Flags().Lookup("metrics"))
}

func TestRotateCommandRequiresConfigFile(t *testing.T) {
	cmd := NewRotateCommand(missingConfig(t))
	cmd.SetArgs([]string{"--identity", "ci-bot"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestStatusCommandRequiresConfigFile(t *testing.T) {
	cmd := NewStatusCommand(missingConfig(t))
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestDoctorCommandRequiresConfigFile(t *testing.T) {
	cmd := NewDoctorCommand(missingConfig(t))
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}

func TestDoctorCommandRejectsMissingIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyrotator.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nhandlers:\n  - type: ssm\n    path: /ci/aws\n"), 0o600))

	cmd := NewDoctorCommand(&config.Config{Path: path, Logger: logging.New(false, true)})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity")
}

func TestRotateCommandHelpMentionsSelfHeal(t *testing.T) {
	cmd := NewRotateCommand(missingConfig(t))
	assert.Contains(t, cmd.Long, "two-key limit")
	assert.Contains(t, cmd.Long, "retried")
}
