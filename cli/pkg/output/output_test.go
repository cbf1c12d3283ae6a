package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func captureStderr(f func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	f()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestSuccess(t *testing.T) {
	output := captureStdout(func() {
		Success("Delivered %d event(s) to sink '%s'", 5, "logging")
	})

	assert.Contains(t, output, "✓")
	assert.Contains(t, output, "Delivered 5 event(s) to sink 'logging'")
}

func TestError(t *testing.T) {
	output := captureStderr(func() {
		Error("Failed to transform event: %v", io.EOF)
	})

	assert.Contains(t, output, "✗")
	assert.Contains(t, output, "Failed to transform event")
}

func TestWarn(t *testing.T) {
	output := captureStdout(func() {
		Warn("2 event(s) failed")
	})

	assert.Contains(t, output, "⚠")
	assert.Contains(t, output, "2 event(s) failed")
}

func TestJSON(t *testing.T) {
	output := captureStdout(func() {
		require.NoError(t, JSON(map[string]any{"logged": true}))
	})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &decoded))
	assert.Equal(t, true, decoded["logged"])
}

func TestTableRender(t *testing.T) {
	output := captureStdout(func() {
		table := NewTable([]string{"ID", "TYPE"})
		table.AddRow([]string{"logging", "internal"})
		table.AddRow([]string{"custom", "external"})
		table.Render()
	})

	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "logging")
	assert.Contains(t, output, "external")
	assert.Contains(t, output, "--")
}
