package main

import "testing"

func TestRootCommandName(t *testing.T) {
	if rootCmd.Use != "sheetctl" {
		t.Fatalf("expected root command name sheetctl, got %q", rootCmd.Use)
	}
}
