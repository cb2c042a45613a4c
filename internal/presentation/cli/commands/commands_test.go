package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeCommand executes a cobra command with the given args.
func executeCommand(root *cobra.Command, args ...string) error {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	return root.Execute()
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd == nil {
		t.Fatal("NewRootCmd returned nil")
	}

	if cmd.Use != "zebra" {
		t.Errorf("expected Use='zebra', got %q", cmd.Use)
	}

	// Check key subcommands exist
	wantSubcmds := []string{
		"start", "stop", "cancel", "add", "restart", "status",
		"log", "edit", "remove", "project", "activity", "update",
		"timesheet", "version",
	}
	subcmds := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcmds[sub.Name()] = true
	}

	for _, want := range wantSubcmds {
		if !subcmds[want] {
			t.Errorf("missing subcommand: %s", want)
		}
	}

	// Check persistent flags
	wantFlags := []string{"config", "output", "verbose", "yes"}
	for _, flag := range wantFlags {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag: %s", flag)
		}
	}
}

func TestVersionCmd_NoError(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"basic", []string{"version"}, false},
		{"short", []string{"version", "--short"}, false},
		{"json", []string{"version", "-o", "json"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewRootCmd()
			err := executeCommand(cmd, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewVersionCmd_Structure(t *testing.T) {
	cmd := NewVersionCmd()

	if cmd.Use != "version" {
		t.Errorf("expected Use='version', got %q", cmd.Use)
	}

	if cmd.Flags().Lookup("short") == nil {
		t.Error("missing --short flag")
	}
}

func TestNewStartCmd_Structure(t *testing.T) {
	cmd := NewStartCmd()

	if !strings.HasPrefix(cmd.Use, "start") {
		t.Errorf("unexpected Use: %q", cmd.Use)
	}

	for _, flag := range []string{"at", "no-gap", "role"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

func TestNewAddCmd_Structure(t *testing.T) {
	cmd := NewAddCmd()

	for _, flag := range []string{"from", "to", "role"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

func TestNewLogCmd_Structure(t *testing.T) {
	cmd := NewLogCmd()

	if cmd.Use != "log" {
		t.Errorf("expected Use='log', got %q", cmd.Use)
	}

	for _, flag := range []string{"from", "to", "project", "exclude-project", "issue", "exclude-issue", "include-partial"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

func TestNewStatusCmd_Structure(t *testing.T) {
	cmd := NewStatusCmd()

	if cmd.Use != "status" {
		t.Errorf("expected Use='status', got %q", cmd.Use)
	}

	if cmd.Flags().Lookup("watch") == nil {
		t.Error("missing --watch flag")
	}
}

func TestNewTimesheetCmd_Structure(t *testing.T) {
	cmd := NewTimesheetCmd()

	if cmd.Use != "timesheet" {
		t.Errorf("expected Use='timesheet', got %q", cmd.Use)
	}

	found := false
	for _, alias := range cmd.Aliases {
		if alias == "ts" {
			found = true
			break
		}
	}
	if !found {
		t.Error("missing 'ts' alias")
	}

	wantSubcmds := []string{"build", "list", "show", "merge", "push", "pull", "delete", "hold"}
	subcmds := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcmds[sub.Name()] = true
	}
	for _, want := range wantSubcmds {
		if !subcmds[want] {
			t.Errorf("missing subcommand: %s", want)
		}
	}
}

func TestTimesheetMergeCmd_Help(t *testing.T) {
	cmd := NewTimesheetMergeCmd()

	// Merging never checks dates; the merged record takes the first
	// input's date. The help must not promise more than the command does.
	if strings.Contains(cmd.Long, "same date") {
		t.Errorf("merge help claims a date check that does not exist:\n%s", cmd.Long)
	}
	if !strings.Contains(cmd.Long, "first input's date") {
		t.Errorf("merge help should explain where the merged date comes from:\n%s", cmd.Long)
	}
	if !strings.Contains(cmd.Long, "remote link") {
		t.Errorf("merge help should explain that the remote link is dropped:\n%s", cmd.Long)
	}
}

func TestResolveAssignment_Individual(t *testing.T) {
	// Role id zero never touches the reference cache.
	assignment, err := resolveAssignment(context.Background(), nil, 0)
	if err != nil {
		t.Fatalf("resolveAssignment() error = %v", err)
	}
	if !assignment.IsIndividual() {
		t.Error("expected an individual assignment")
	}
}
