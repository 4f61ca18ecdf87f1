package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/akamensky/argparse"
	"github.com/coreos/go-systemd/daemon"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/overwatch/server"
	"github.com/cyclopcam/overwatch/server/config"
)

func main() {
	parser := argparse.NewParser("overwatch", "Object tracking and security event engine")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Configuration file (yaml, json, toml or env). If omitted, we look for overwatch.* in . and /etc/overwatch", Default: ""})
	dataDir := parser.String("d", "data", &argparse.Options{Help: "Directory for the config and event databases (overrides data_dir)", Default: ""})
	httpAddr := parser.String("", "http", &argparse.Options{Help: "HTTP listen address, eg :8080 (overrides http_addr)", Default: ""})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Log track creation and expiry", Default: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	if *verbose {
		cfg.Engine.Verbose = true
	}

	srv, err := server.NewServer(logger, cfg)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	srv.ListenForKillSignals()

	// Tell systemd that we're alive
	daemon.SdNotify(false, daemon.SdNotifyReady)

	err = srv.ListenHTTP(cfg.HTTPAddr)
	if !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("ListenHTTP returned: %v", err)
		srv.Shutdown()
	}
	<-srv.ShutdownComplete
	logger.Close()
}
