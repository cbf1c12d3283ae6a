package cmd

import (
	"testing"
)

func TestCommandsRegistered(t *testing.T) {
	expected := map[string]bool{
		"transform": false,
		"sink":      false,
		"list":      false,
		"seed":      false,
	}

	for _, cmd := range rootCmd.Commands() {
		if _, ok := expected[cmd.Name()]; ok {
			expected[cmd.Name()] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestListSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range listCmd.Commands() {
		names[cmd.Name()] = true
	}
	if !names["transformers"] || !names["sinks"] {
		t.Errorf("list subcommands = %v, want transformers and sinks", names)
	}
}

func TestParseProperties(t *testing.T) {
	cmd := sinkCmd
	if err := cmd.Flags().Set("property", "format=text"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("property", "api-key=k-1=with=equals"); err != nil {
		t.Fatal(err)
	}
	props, err := parseProperties(cmd)
	if err != nil {
		t.Fatalf("parseProperties() error = %v", err)
	}
	if props["format"] != "text" {
		t.Errorf("format = %q", props["format"])
	}
	if props["api-key"] != "k-1=with=equals" {
		t.Errorf("api-key = %q, value should keep embedded equals signs", props["api-key"])
	}
}

func TestReadEventRequiresInput(t *testing.T) {
	if _, err := readEvent(transformCmd); err == nil {
		t.Error("readEvent() without --event or --file should fail")
	}
}

func TestSinkURLDefault(t *testing.T) {
	cfg = nil
	if got := sinkURL(rootCmd); got != "http://localhost:8082" {
		t.Errorf("sinkURL() = %q", got)
	}
	if got := transformerURL(rootCmd); got != "http://localhost:8081" {
		t.Errorf("transformerURL() = %q", got)
	}
}
