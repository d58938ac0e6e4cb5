package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeMobile(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare ten digits", "9876543210", "+919876543210"},
		{"plus country code", "+919876543210", "+919876543210"},
		{"country code without plus", "919876543210", "+919876543210"},
		{"spaces and dashes", "91 9876-543-210", "+919876543210"},
		{"parentheses", "(91) 98765 43210", "+919876543210"},
		{"empty is allowed", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeMobile(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeMobileRejects(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"too short", "12345"},
		{"too long", "98765432101"},
		{"bad leading digit", "5876543210"},
		{"letters", "98765abcde"},
		{"country code with nine digits", "91987654321"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeMobile(tc.input)
			require.Error(t, err)
		})
	}
}
