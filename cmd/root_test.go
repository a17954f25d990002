package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubcommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"enrich", "batch", "serve", "backfill", "status", "reset"} {
		assert.True(t, names[want], "command %s is registered", want)
	}
}

func TestParseRegisterPair(t *testing.T) {
	ref, err := parseRegisterPair("g-123=Hotel Aurora")
	require.NoError(t, err)
	assert.Equal(t, "g-123", ref.ID)
	assert.Equal(t, "Hotel Aurora", ref.Name)

	for _, bad := range []string{"", "noequals", "=name", "id="} {
		_, err := parseRegisterPair(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
