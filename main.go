package main

import (
	"os"

	"github.com/go-i2p/logger"
	"github.com/urfave/cli/v3"
	"ofp-certificates/cmd"
)

var lgr = logger.GetGoI2PLogger()

func main() {
	app := cli.NewApp()
	app.Name = "autosign"
	app.Usage = "Generate a self-signed certificate"
	app.Flags = cmd.NewAutosignFlags()
	app.Action = cmd.AutosignAction

	// The diagnostic has already been printed by the action.
	if err := app.Run(os.Args); err != nil {
		lgr.WithError(err).Error("Application execution failed")
		os.Exit(1)
	}
}
