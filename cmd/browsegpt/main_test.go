package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_ConfigErrorReturnsExitCode(t *testing.T) {
	t.Setenv("BROWSERBASE_API_KEY", "")
	t.Setenv("BROWSERBASE_PROJECT_ID", "")
	t.Setenv("OPENAI_API_KEY", "")

	assert.Equal(t, 1, run())
}
