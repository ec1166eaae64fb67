// Command feedoracle runs the price feed oracle node and its operator
// commands against the node's store.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var (
	version = "v0.1.0"
	commit  = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "feedoracle",
		Usage:   "committee-attested price feed oracle",
		Version: fmt.Sprintf("%s (commit %s)", version, commit),
		Flags: []cli.Flag{
			configFlag,
			dbBackendFlag,
			dbPathFlag,
			logLevelFlag,
			logFormatFlag,
		},
		Commands: []*cli.Command{
			runCommand,
			submitCommand,
			setValidatorsCommand,
			whitelistCommand,
			supportFeedsCommand,
			resetTimestampsCommand,
			pauseCommand,
			unpauseCommand,
			getFeedCommand,
		},
	}
}
