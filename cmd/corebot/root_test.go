package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/corebot"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "corebot version "+corebot.Version+"\n", out.String())
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "chat", "mcp", "version"})
}

func TestLoadConfig_RejectsBadLevel(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{"--log-level", "loud"}))
	t.Cleanup(func() { _ = rootCmd.Flags().Set("log-level", "") })

	_, _, err := loadConfig(rootCmd)
	assert.ErrorContains(t, err, "invalid log level")
}
