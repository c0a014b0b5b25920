package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/nickyhof/JsonDB"
	"github.com/nickyhof/JsonDB/core"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	port := flag.Int("port", 3306, "TCP port to listen on")
	dir := flag.String("dir", "", "Directory holding the databases (memory if empty)")
	database := flag.String("database", "default", "Database opened by new sessions")
	history := flag.Bool("history", false, "Record every table write as a commit")
	jwtSecret := flag.String("jwtSecret", "", "Shared secret for JWT authentication (disabled if empty)")
	jwtIssuer := flag.String("jwtIssuer", "", "Expected JWT issuer")
	jwtAudience := flag.String("jwtAudience", "", "Expected JWT audience")
	tlsCert := flag.String("tlsCert", "", "TLS certificate file")
	tlsKey := flag.String("tlsKey", "", "TLS key file")
	advertise := flag.Bool("mdns", false, "Advertise the server on the local network over mDNS")
	instance := flag.String("mdnsInstance", "", "mDNS instance name (hostname if empty)")
	logLevel := flag.String("logLevel", "info", "Log level: debug, info, warn or error")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s SQL Server v%s\n", JsonDB.ProductName, Version)
		return
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *logLevel)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	config := Config{
		Root:     *dir,
		Database: *database,
		Identity: core.Identity{Name: "JsonDB Server", Email: "server@jsondb.local"},
		History:  *history,
		Logger:   logger,
	}
	if *dir == "" {
		logger.Info("using memory persistence")
		config.Filesystem = memfs.New()
	} else {
		logger.Info("using file persistence", "dir", *dir)
	}
	if *jwtSecret != "" {
		config.Auth = &AuthConfig{
			JWTSecret: *jwtSecret,
			Issuer:    *jwtIssuer,
			Audience:  *jwtAudience,
		}
	}

	server, err := NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", *port)
	if *tlsCert != "" || *tlsKey != "" {
		err = server.StartTLS(addr, *tlsCert, *tlsKey)
	} else {
		err = server.Start(addr)
	}
	if err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	if *advertise {
		if err := server.Advertise(*instance); err != nil {
			logger.Warn("mDNS advertisement failed", "error", err)
		}
	}

	fmt.Println()
	fmt.Printf("%s SQL Server v%s\n", JsonDB.ProductName, Version)
	fmt.Printf("Listening on port %d, database %q\n", *port, *database)
	if config.Auth != nil {
		fmt.Println("Authenticate with 'AUTH JWT <token>'")
	}
	fmt.Println("Send SQL statements (one per line), 'quit' to disconnect")
	fmt.Println()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	server.Stop()
	logger.Info("server stopped")
}
