package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// IAMError enhances IAM service errors with context
func IAMError(operation, identity string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("IAM error during %s for user '%s'", operation, identity),
		Suggestion: getIAMSuggestion(err),
		Err:        err,
	}
}

// HandlerError wraps a propagation handler failure with context
func HandlerError(handler string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("key handler '%s' failed", handler),
		Suggestion: "The new key was deleted; the previous keys are untouched. Fix the handler target and rerun",
		Err:        err,
	}
}

// getIAMSuggestion returns helpful suggestions based on the IAM error
func getIAMSuggestion(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()

	if strings.Contains(errStr, "LimitExceeded") {
		return "The user already has the maximum number of access keys. Delete an inactive key with 'aws iam delete-access-key' or rerun rotation (it self-heals)"
	}
	if strings.Contains(errStr, "NoSuchEntity") {
		return "Verify the IAM user name. List users with: 'aws iam list-users'"
	}
	if strings.Contains(errStr, "AccessDenied") {
		return "Check IAM permissions for iam:ListAccessKeys, iam:CreateAccessKey and iam:DeleteAccessKey"
	}
	if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "no EC2 IMDS role found") {
		return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
	}
	if IsRetryable(err) {
		return "Transient AWS failure (rate limit or timeout). Wait a moment and rerun; rotation picks up where it left off"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect to AWS. Check your network and the configured endpoint"
	}

	return ""
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"rate exceeded",
		"throttling",
		"too many requests",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}

	return false
}
