package main

import (
	"fmt"
	"os"

	"github.com/kyverno/admission-engine/cmd/kyverno-engine/commands"
	"github.com/kyverno/admission-engine/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cmd := commands.RootCommand()
	// serve reconfigures the logger from its flags and configuration file
	if err := logging.Setup(logging.TextFormat, logging.DefaultTime, 0); err != nil {
		return fmt.Errorf("Failed to setup logging (%w)", err)
	}
	if err := cmd.Execute(); err != nil {
		return fmt.Errorf("Failed to execute command (%w)", err)
	}
	return nil
}
