package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	dbName   = flag.String("dbName", "wati2wat.db", "compile cache db name, relative to the executable.")
	addr     = flag.String("addr", "localhost:8080", "TCP address to listen to")
	expire   = flag.Duration("expire", 7*24*time.Hour, "drop cache entries not read for this long, 0 keeps them forever")
	clean    = flag.Duration("clean", 5*time.Minute, "how often to look for expired cache entries")
	compress = flag.Bool("compress", true, "store cached outputs zstd compressed")
	verbose  = flag.Bool("v", false, "log every request")
)

func main() {
	// Parse command-line flags.
	flag.Parse()
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	dbPath := *dbName
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(filepath.Dir(os.Args[0]), dbPath)
	}
	if err := OpenDb(dbPath); err != nil {
		logrus.Fatalf("opening %s: %v", dbPath, err)
	}
	if err := StartExpiredCleanSchedule(*clean); err != nil {
		logrus.Fatalf("starting clean schedule: %v", err)
	}
	go ServeCompile(*addr)

	// Make a signal channel. Register SIGINT.
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt)

	// Wait for the signal.
	<-sigch

	logrus.Info("Interrupted. Exiting.")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdown(ctx)
}
