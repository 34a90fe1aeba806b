package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreds(t *testing.T) {
	cfg := &Config{BasicAuthCreds: "alice:secret, bob : hunter2"}

	creds, err := cfg.parseCreds()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alice": "secret", "bob": "hunter2"}, creds)
}

func TestParseCredsRejectsEmpty(t *testing.T) {
	cfg := &Config{}

	_, err := cfg.parseCreds()
	assert.ErrorContains(t, err, "BASIC_AUTH_CREDS")
}

func TestParseCredsRejectsMalformedPair(t *testing.T) {
	cfg := &Config{BasicAuthCreds: "alice:secret,bob"}

	_, err := cfg.parseCreds()
	assert.ErrorContains(t, err, "failed to parse 'bob'")
}
