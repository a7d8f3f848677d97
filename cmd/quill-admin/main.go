// ABOUTME: Entry point for quill-admin
// ABOUTME: Operator CLI for the content API and persisted wizard sessions

package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/2389/quill/cmd/quill-admin/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}
