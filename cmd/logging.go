package cmd

import (
	"github.com/achilleasa/starmap/log"
	"github.com/urfave/cli"
)

var logger = log.New("starmap-cli")

func setupLogging(ctx *cli.Context) error {
	if name := ctx.GlobalString("log-level"); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	// Per system placement messages are only useful when debugging the
	// generator itself.
	if !ctx.GlobalBool("trace-placement") && log.GetLevel() == log.Debug {
		log.SetModuleLevel("starmap", log.Info)
	}
	return nil
}
