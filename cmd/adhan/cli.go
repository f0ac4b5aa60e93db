package main

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
)

var (
	cfgPath  string
	platform string
	unitName string
	noSave   bool
)

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "config, c",
		Usage:       "path to the config file (json or yaml)",
		EnvVar:      "ADHAN_CONFIG",
		Value:       "./config.yaml",
		Destination: &cfgPath,
	},
	cli.StringFlag{
		Name:        "platform, p",
		Usage:       "audio platform: windows, linux or mac (default: from config, else this host)",
		EnvVar:      "ADHAN_PLATFORM",
		Destination: &platform,
	},
}

var fetchFlags = []cli.Flag{
	cli.BoolFlag{
		Name:        "no-save",
		Usage:       "print the month without writing the cache",
		Destination: &noSave,
	},
}

var statusFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "unit, u",
		Usage:       "systemd unit name",
		Value:       "adhan",
		Destination: &unitName,
	},
}

func execute(args []string) error {
	app := cli.App{
		Name:      "adhan",
		HelpName:  "adhan",
		Usage:     "plays the adhan at each daily prayer time",
		Version:   version,
		UsageText: "adhan [--config FILE] <command> [arguments...]",
		Flags:     globalFlags,
		Commands: []cli.Command{
			{
				Name:   "run",
				Usage:  "run the scheduler until interrupted",
				Action: run,
			},
			{
				Name:   "fetch",
				Usage:  "download this month's timetable and store it in the cache",
				Action: fetch,
				Flags:  fetchFlags,
			},
			{
				Name:   "today",
				Usage:  "print today's prayer times",
				Action: today,
			},
			{
				Name:   "next",
				Usage:  "print the next prayer",
				Action: next,
			},
			{
				Name:   "status",
				Usage:  "show the systemd unit state",
				Action: status,
				Flags:  statusFlags,
			},
			{
				Name:   "version",
				Usage:  "prints the version",
				Action: printVersion,
			},
		},
		Action:      run,
		HideVersion: true,
	}
	return app.Run(args)
}

func printVersion(ctx *cli.Context) error {
	fmt.Printf("%s %s (%s_%s)\nBuild: %s=%s\n",
		ctx.App.Name, ctx.App.Version, runtime.GOOS, runtime.GOARCH, date, commit)
	return nil
}
