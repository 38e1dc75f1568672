// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctor_ReportsAllChecks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	withMockSecretStore(t, newMockSecretStore())

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"doctor"})

	require.NoError(t, root.Execute())

	out := buf.String()
	for _, heading := range []string{"Binary:", "Platform:", "Config:", "Provider:", "Graph:", "Container:", "History:", "Disk Space:"} {
		assert.Contains(t, out, heading)
	}
	assert.Contains(t, out, "querent dev")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 bytes"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
