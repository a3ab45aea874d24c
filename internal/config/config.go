package config

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/EconomistDigitalSolutions/aws-key-rotator/internal/errors"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/logging"
)

// Config holds the runtime configuration
type Config struct {
	Path   string
	Logger *logging.Logger

	Definition *Definition
}

// Definition represents the keyrotator.yaml structure
type Definition struct {
	Version  int       `yaml:"version"`
	Identity string    `yaml:"identity"`
	AWS      AWS       `yaml:"aws"`
	Handlers []Handler `yaml:"handlers"`
}

// AWS holds shared AWS connection settings
type AWS struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint,omitempty"` // LocalStack or testing

	// Static credentials, for LocalStack/testing only. The secret is
	// typed logging.Secret so a formatted dump never prints it.
	AccessKeyID     string         `yaml:"access_key_id,omitempty"`
	SecretAccessKey logging.Secret `yaml:"secret_access_key,omitempty"`
}

// Load builds an aws.Config from the settings, falling back to the
// default credential chain when no static credentials are set.
func (a AWS) Load(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if a.Region != "" {
		opts = append(opts, awsconfig.WithRegion(a.Region))
	}
	if a.AccessKeyID != "" && a.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.AccessKeyID, string(a.SecretAccessKey), ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// Handler holds the configuration for one propagation handler
type Handler struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:",inline"`
}

// String returns a string field from the handler's inline config.
func (h Handler) String(key string) string {
	if v, ok := h.Config[key].(string); ok {
		return v
	}
	return ""
}

// schema validates the parsed configuration document.
const schema = `{
  "type": "object",
  "required": ["version", "identity"],
  "properties": {
    "version": {"type": "integer", "enum": [1]},
    "identity": {"type": "string", "minLength": 1},
    "aws": {
      "type": "object",
      "properties": {
        "region": {"type": "string"},
        "endpoint": {"type": "string"},
        "access_key_id": {"type": "string"},
        "secret_access_key": {"type": "string"}
      }
    },
    "handlers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {
            "type": "string",
            "enum": ["secretsmanager", "ssm", "keyring", "webhook", "credentials-file"]
          }
        }
      }
    }
  }
}`

// Load reads, env-expands, parses and validates the config file.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Create a keyrotator.yaml or pass --config <path>",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	// ${VAR} references resolve from the environment so secrets like
	// webhook tokens stay out of the file.
	expanded := os.Expand(string(data), func(name string) string {
		return os.Getenv(name)
	})

	var def Definition
	if err := yaml.Unmarshal([]byte(expanded), &def); err != nil {
		return dserrors.ConfigError{
			Field:      "yaml",
			Message:    "invalid YAML format: " + err.Error(),
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if err := validate([]byte(expanded)); err != nil {
		return err
	}

	c.Definition = &def
	if c.Logger != nil {
		c.Logger.Debug("Loaded %s: %+v", c.Path, def)
	}
	return nil
}

// validate checks the YAML document against the embedded JSON schema.
func validate(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return dserrors.ConfigError{Field: "yaml", Message: err.Error()}
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return dserrors.ConfigError{Field: "yaml", Message: err.Error()}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return dserrors.ConfigError{Message: "schema validation failed: " + err.Error()}
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return dserrors.ConfigError{
			Message:    strings.Join(problems, "; "),
			Suggestion: "Minimal config: {version: 1, identity: <iam-user>, handlers: [{type: ssm, path: /ci/aws}]}",
		}
	}
	return nil
}
