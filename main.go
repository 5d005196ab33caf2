// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/stratastor/nekrosis/cmd"
	"github.com/stratastor/nekrosis/pkg/errors"
	"github.com/stratastor/nekrosis/pkg/lifecycle"
)

func main() {
	ctx, cancel := lifecycle.HandleSignals(context.Background())
	rootCmd := cmd.NewRootCmd()

	err := rootCmd.ExecuteContext(ctx)
	cancel()
	lifecycle.RunShutdownHooks()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errors.ExitCode(err))
	}
}
