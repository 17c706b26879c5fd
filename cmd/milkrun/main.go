package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/milkrunhq/milkrun/config"
	"github.com/milkrunhq/milkrun/internal/adminapi"
	"github.com/milkrunhq/milkrun/internal/app"
	"github.com/milkrunhq/milkrun/internal/webserver"
)

var (
	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	conffile = flag.String("c", "", "config yaml file")
	initdb   = flag.Bool("initdb", false, "drop and initialize the database, then exit")
	install  = flag.Bool("install", false, "write the default config to /etc/milkrun.yml, then exit")
)

var (
	BuildVersion string
	ReleaseDate  string
)

func printVersion() {
	fmt.Printf("milkrun %s (%s)\n", BuildVersion, ReleaseDate)
}

func installConfig() error {
	cfg := config.DefaultAppConfig
	return config.WriteConfig("/etc/milkrun.yml", cfg)
}

func main() {
	flag.Parse()
	if *h {
		flag.Usage()
		return
	}
	if *showVer {
		printVersion()
		return
	}
	if *install {
		if err := installConfig(); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		return
	}

	cfg := config.LoadConfig(*conffile)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.DropAll()
		application.InitDb()
		return
	}

	webserver.Init(cfg, application.DB())
	adminapi.Register(application)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	application.StartBackgroundJobs(ctx)

	go func() {
		if err := webserver.Listen(); err != nil {
			zap.L().Fatal("web server exited", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	zap.L().Info("shutting down", zap.String("signal", s.String()))
}
