// Command minikv-server is the bootstrap for the key/value store: parse
// the optional config file argument, wire up logging, load any existing
// dump.rdb, and serve.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandia-minimega/minikv/internal/config"
	"github.com/sandia-minimega/minikv/internal/minilog"
	"github.com/sandia-minimega/minikv/internal/server"
)

const banner = `minikv-server`

func usage() {
	fmt.Println(banner)
	fmt.Println("usage: minikv-server [/path/to/config]")
}

func main() {
	minilog.InitStdio(minilog.INFO)

	if len(os.Args) > 2 {
		usage()
		os.Exit(1)
	}

	cfg := config.Default()
	if len(os.Args) == 2 {
		var err error
		cfg, err = config.Load(os.Args[1])
		if err != nil {
			minilog.Fatal("config: %v", err)
		}
	}

	minilog.DelLogger("stdio")
	minilog.InitStdio(cfg.LogLevel)
	if cfg.LogFile != "stdout" {
		if err := minilog.InitFile(cfg.LogFile, cfg.LogLevel); err != nil {
			minilog.Fatal("logfile: %v", err)
		}
	}

	s, err := server.New(cfg)
	if err != nil {
		minilog.Fatal("startup: %v", err)
	}

	if err := s.Listen(); err != nil {
		minilog.Fatal("listen: %v", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	signal.Ignore(syscall.SIGHUP, syscall.SIGPIPE)

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve() }()

	select {
	case sig := <-shutdown:
		minilog.Info("caught %v, shutting down", sig)
		s.Close()
	case err := <-serveErr:
		if err != nil {
			minilog.Fatal("serve: %v", err)
		}
	}
}
