package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidate(t *testing.T) {
	for _, spec := range []string{
		"0 9 * * *",
		"*/5 * * * *",
		"30 0 9 * * *", // optional leading seconds field
		"@daily",
	} {
		assert.NoError(t, Validate(spec), spec)
	}

	for _, spec := range []string{
		"",
		"not a cron",
		"61 * * * *",
		"* * * * * * *",
	} {
		assert.Error(t, Validate(spec), spec)
	}
}

func TestNewRunnerAcceptsOptionalSeconds(t *testing.T) {
	runner := NewRunner(zap.NewNop())

	_, err := runner.AddFunc("0 */6 * * *", func() {})
	require.NoError(t, err)
	_, err = runner.AddFunc("15 0 9 * * *", func() {})
	require.NoError(t, err)
	_, err = runner.AddFunc("bogus", func() {})
	assert.Error(t, err)
}
