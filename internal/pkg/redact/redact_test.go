package redact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"foobar@example.com":  "fo***@example.com",
		"ab@ex.com":           "***@ex.com",
		"no-at":               "***",
		"a@b@c":               "***",
		"абвг@пример.рф":      "аб***@пример.рф",
		"abc.def+tag@EXAMPLE": "ab***@EXAMPLE",
	}

	for in, want := range cases {
		require.Equal(t, want, Email(in), in)
	}
}

func TestPhone(t *testing.T) {
	t.Parallel()

	require.Equal(t, "***67", Phone("+7 (999) 123-45-67"))
	require.Equal(t, "***", Phone("12"))
	require.Equal(t, "***", Phone(""))
}

func TestToken(t *testing.T) {
	t.Parallel()

	require.Equal(t, "[REDACTED_TOKEN]", Token())
}
