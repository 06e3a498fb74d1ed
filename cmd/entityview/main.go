/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command entityview lists, adds and removes sample documents through the
// shared document view.
package main

import (
	"os"

	"github.com/suparena/entityview/internal/cli"
	"github.com/suparena/entityview/internal/ui"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		ui.Errorf(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
