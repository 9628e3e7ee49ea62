// Command devanalytics evaluates repository and developer performance
// from commit history.
package main

import (
	"os"

	"github.com/devanalytics/devanalytics/cmd"
	"github.com/devanalytics/devanalytics/internal/logging"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logging.L().Error(err)
		os.Exit(1)
	}
}
