package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserErrorFormatting(t *testing.T) {
	err := UserError{
		Message:    "rotation failed",
		Details:    "the handler rejected the key",
		Suggestion: "check the handler configuration",
	}

	msg := err.Error()
	if !strings.Contains(msg, "rotation failed") {
		t.Errorf("missing message: %q", msg)
	}
	if !strings.Contains(msg, "Details: the handler rejected the key") {
		t.Errorf("missing details: %q", msg)
	}
	if !strings.Contains(msg, "Try: check the handler configuration") {
		t.Errorf("missing suggestion: %q", msg)
	}
}

func TestUserErrorFallsBackToWrapped(t *testing.T) {
	inner := errors.New("boom")
	err := UserError{Err: inner}

	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected wrapped error text, got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to match wrapped error")
	}
}

func TestConfigErrorFormatting(t *testing.T) {
	err := ConfigError{
		Field:      "handlers",
		Value:      "sqs",
		Message:    "unknown handler type",
		Suggestion: "valid types: secretsmanager, ssm, keyring, webhook, credentials-file",
	}

	msg := err.Error()
	for _, want := range []string{"handlers", "sqs", "unknown handler type", "valid types"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestIAMErrorSuggestions(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantInside string
	}{
		{
			name:       "limit exceeded",
			err:        errors.New("LimitExceeded: Cannot exceed quota for AccessKeysPerUser: 2"),
			wantInside: "maximum number of access keys",
		},
		{
			name:       "no such entity",
			err:        errors.New("NoSuchEntity: The user with name ci-bot cannot be found"),
			wantInside: "Verify the IAM user name",
		},
		{
			name:       "access denied",
			err:        errors.New("AccessDenied: not authorized to perform iam:CreateAccessKey"),
			wantInside: "iam:CreateAccessKey",
		},
		{
			name:       "throttled",
			err:        errors.New("Throttling: Rate exceeded"),
			wantInside: "rate limit",
		},
		{
			name:       "timeout",
			err:        errors.New("RequestError: send request failed: dial tcp: i/o timeout"),
			wantInside: "Wait a moment and rerun",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := IAMError("createKey", "ci-bot", tt.err)
			if !strings.Contains(wrapped.Error(), tt.wantInside) {
				t.Errorf("IAMError() = %q, missing %q", wrapped.Error(), tt.wantInside)
			}
			if !errors.Is(wrapped, tt.err) {
				t.Error("expected wrapped IAM error to unwrap to the original")
			}
		})
	}
}

func TestHandlerErrorKeepsCause(t *testing.T) {
	cause := fmt.Errorf("PutSecretValue: %w", errors.New("AccessDenied"))
	err := HandlerError("secretsmanager", cause)

	if !errors.Is(err, cause) {
		t.Error("expected handler error to unwrap to cause")
	}
	if !strings.Contains(err.Error(), "secretsmanager") {
		t.Errorf("missing handler name in %q", err.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("operation timeout"), true},
		{errors.New("Throttling: Rate exceeded"), true},
		{errors.New("connection reset by peer"), true},
		{errors.New("NoSuchEntity"), false},
		{errors.New("AccessDenied"), false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
