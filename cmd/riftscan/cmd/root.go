// Copyright 2020 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd wires the riftscan CLI's cobra commands onto the engine packages.
package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ExitOK, ExitFindings and ExitFatal are the three exit codes §6 of the spec defines.
const (
	ExitOK       = 0
	ExitFindings = 1
	ExitFatal    = 2
)

var rootCmd = &cobra.Command{
	Use:   "riftscan",
	Short: "riftscan is a static analysis engine for source, configuration and infrastructure files",
}

// Execute runs the CLI and returns the process exit code; main's only job is os.Exit(Execute()).
func Execute() int {
	rootCmd.AddCommand(scanCmd)

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("riftscan failed")
		return ExitFatal
	}

	return lastExitCode
}

// lastExitCode is set by runScan once it knows whether findings crossed --fail-on; cobra's RunE
// contract only lets a command signal failure via error, not a specific exit code, so scan.go
// stashes the code here for Execute to return.
var lastExitCode = ExitOK

func fatalf(format string, args ...interface{}) error {
	lastExitCode = ExitFatal
	return fmt.Errorf(format, args...)
}

func exitWithCode(code int) {
	lastExitCode = code
}
