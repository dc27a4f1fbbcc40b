package command

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealRunner_Run_Success(t *testing.T) {
	runner := NewRealRunner()

	result, err := runner.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, "hello\n", result.Stdout)
}

func TestRealRunner_Run_Failure(t *testing.T) {
	runner := NewRealRunner()

	result, err := runner.Run(context.Background(), "false")
	require.NoError(t, err, "non-zero exit should be reported in the result")
	assert.False(t, result.Success())
	assert.NotZero(t, result.ExitCode)
}

func TestRealRunner_Run_NotFound(t *testing.T) {
	runner := NewRealRunner()

	_, err := runner.Run(context.Background(), "nonexistent-command-12345")
	require.Error(t, err)
}

func TestRealRunner_Run_WithStderr(t *testing.T) {
	runner := NewRealRunner()

	result, err := runner.Run(context.Background(), "sh", "-c", "echo error >&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "error\n", result.Stderr)
}

func TestRealRunner_Run_Timeout(t *testing.T) {
	runner := NewRealRunner()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := runner.Run(ctx, "sleep", "5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRealRunner_Transcript(t *testing.T) {
	var buf bytes.Buffer
	runner := NewRealRunner(WithTranscript(&buf))

	_, err := runner.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)

	transcript := buf.String()
	assert.Contains(t, transcript, "$ sh -c echo out; echo err >&2 (exit 0")
	assert.Contains(t, transcript, "  | out\n")
	assert.Contains(t, transcript, "  | err\n")
}

func TestRealRunner_WithEnv(t *testing.T) {
	runner := NewRealRunner(WithEnv("AISTACK_TEST_VALUE=42"))

	result, err := runner.Run(context.Background(), "sh", "-c", "echo $AISTACK_TEST_VALUE")
	require.NoError(t, err)
	assert.Equal(t, "42\n", result.Stdout)
}
