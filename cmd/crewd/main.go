package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ValentinKt/clean-up-crew/internal/api"
	"github.com/ValentinKt/clean-up-crew/internal/config"
	"github.com/ValentinKt/clean-up-crew/internal/database"
	"github.com/ValentinKt/clean-up-crew/internal/server"
	"github.com/ValentinKt/clean-up-crew/internal/stats"
	_ "github.com/lib/pq"
)

const defaultSigningKey = "Y3Jldy1kZXYtc2lnbmluZy1rZXktY2hhbmdlLW1l"

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[crewd] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgEventRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("db migrate:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	eventServer, err := server.NewEventServer(logger, dbConn, statsUpdater)
	if err != nil {
		logger.Fatal("new event server:", err)
	}

	srv, err := api.NewCrewApp(mux, logger, eventServer, dbConn, statsUpdater, cfg)
	if err != nil {
		logger.Fatal("new app:", err)
	}

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go eventServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down event server...")
	if err := eventServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("event server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
