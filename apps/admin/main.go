package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/elimu/apps/di"
	"github.com/trezcool/elimu/core"
)

func main() {
	conf := core.NewConfig()
	c, err := di.New(context.Background(), conf, "admin")
	if err != nil {
		log.Fatalf("setting up dependencies: %v", err)
	}

	cli := commandLine{
		courseSvc:    c.CourseSvc,
		reconcileSvc: c.ReconcileSvc,
		in:           os.Stdin,
		out:          os.Stdout,
	}
	if c.DB != nil {
		cli.db = c.DB.DB
	}

	err = cli.run(os.Args)
	if err != nil && err != errHelp {
		c.Logger.Error("admin command failed", "command", os.Args[1:], err)
	}
	_ = c.Close()
	if err != nil {
		os.Exit(1)
	}
}
