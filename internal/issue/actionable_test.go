// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "resolve manifest"},
			expected: "failed to resolve manifest",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "resolve manifest",
				Resource:  "crates/core/Cargo.toml",
			},
			expected: "failed to resolve manifest: crates/core/Cargo.toml",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "open source",
				Resource:  "demo-0.1.0.crate",
				Cause:     errors.New("unexpected EOF"),
			},
			expected: "failed to open source: demo-0.1.0.crate: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	cause := errors.New("specific error")
	wrapped := WrapWithOperation(cause, "test")
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if WrapWithOperation(nil, "test") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name: "suggestions",
			err: &ActionableError{
				Operation:   "resolve manifest",
				Suggestions: []string{"Check the path", "Run with --verbose"},
			},
			contains: []string{"failed to resolve manifest", "  • Check the path", "  • Run with --verbose"},
		},
		{
			name: "linked issue adds explain hint",
			err: &ActionableError{
				Operation: "resolve manifest",
				Issue:     CyclicFeatureId,
			},
			contains: []string{"  • Run 'cargoscope explain CyclicFeature' for details"},
		},
		{
			name: "error chain in verbose mode",
			err: &ActionableError{
				Operation: "resolve manifest",
				Cause: &ActionableError{
					Operation: "read Cargo.toml",
					Cause:     errors.New("permission denied"),
				},
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. failed to read Cargo.toml: permission denied",
				"2. permission denied",
			},
		},
		{
			name: "no error chain in non-verbose",
			err: &ActionableError{
				Operation: "resolve manifest",
				Cause:     errors.New("boom"),
			},
			excludes: []string{"Error chain:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestActionableError_FormatKeepsSuggestions(t *testing.T) {
	t.Parallel()

	suggestions := make([]string, 1, 4)
	suggestions[0] = "first"
	err := &ActionableError{Operation: "x", Suggestions: suggestions, Issue: StorageErrorId}
	_ = err.Format(false)
	if len(err.Suggestions) != 1 || suggestions[:2][1] != "" {
		t.Error("Format must not modify the suggestion slice")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	if NewErrorContext().WithResource("Cargo.toml").Build() != nil {
		t.Error("Build() without an operation should return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() without an operation should return nil")
	}

	cause := errors.New("parse error")
	err := NewErrorContext().
		WithOperation("resolve manifest").
		WithResource("Cargo.toml").
		WithSuggestion("Check syntax").
		WithSuggestions("Verify permissions", "Retry").
		WithIssue(MalformedSourceId).
		Wrap(cause).
		Build()
	if err.Operation != "resolve manifest" || err.Resource != "Cargo.toml" {
		t.Errorf("unexpected context: %+v", err)
	}
	if len(err.Suggestions) != 3 {
		t.Errorf("Suggestions count = %d, want 3", len(err.Suggestions))
	}
	if err.Issue != MalformedSourceId || !errors.Is(err, cause) {
		t.Errorf("issue or cause lost: %+v", err)
	}
}
