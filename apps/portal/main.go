// Command portal drives the school portal from a terminal: log in, list courses,
// assignments and sessions, browse the calendar and export score charts.
package main

import (
	"log"
	"os"

	"github.com/rollbar/rollbar-go"

	"github.com/Hoomanxj/eztutor/core"
	"github.com/Hoomanxj/eztutor/services/logger"
)

func main() {
	std := log.New(os.Stderr, "PORTAL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		std.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)
	defer rollbar.Close()

	cli, err := newCommandLine(conf, logger, os.Stdout)
	if err != nil {
		logger.Fatal("setting up the portal client", err)
	}
	defer cli.close()

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("portal: command failed", err)
		}
		cli.close()
		rollbar.Close()
		os.Exit(1)
	}
}
