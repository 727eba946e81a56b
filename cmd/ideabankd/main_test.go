package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "ideabankd", root.Use)

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["version"])

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"version"})
	assert.NoError(t, root.Execute())
}
