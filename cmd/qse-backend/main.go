package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/quantumsafe-io/qse-backend/cmd/flags"
	"github.com/quantumsafe-io/qse-backend/cryptoutils"
	"github.com/quantumsafe-io/qse-backend/httpserver"
	"github.com/quantumsafe-io/qse-backend/interfaces"
	"github.com/quantumsafe-io/qse-backend/storage"
	"github.com/urfave/cli/v2"
)

var serverFlags = append([]cli.Flag{
	flags.ListenAddrFlag,
	flags.DatabaseURLFlag,
	flags.StorageURIFlag,
	flags.BlobDirFlag,
}, flags.CommonFlags...)

func main() {
	// A .env file is optional; variables already set in the environment win.
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "qse-backend",
		Usage:  "Serve the quantum-safe document encryption API",
		Flags:  serverFlags,
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
	databaseURL := cCtx.String(flags.DatabaseURLFlag.Name)
	storageURI := cCtx.String(flags.StorageURIFlag.Name)
	blobDir := cCtx.String(flags.BlobDirFlag.Name)

	logger := flags.SetupLogger(cCtx)

	// Run the cipher self-test before accepting requests. A failed probe
	// keeps the server up with encrypt and decrypt disabled.
	cryptoStatus := cryptoutils.Probe()
	if cryptoStatus.Available {
		logger.Info("Cipher self-test passed", "algorithm", cryptoutils.AlgorithmLabel)
	} else {
		logger.Error("Cipher self-test failed, encrypt and decrypt disabled", "detail", cryptoStatus.Detail)
	}

	// The database URL takes precedence over the storage URI, matching the
	// DATABASE_URL environment contract.
	location := interfaces.StorageLocation(storageURI)
	if databaseURL != "" {
		location = interfaces.StorageLocation(databaseURL)
	}

	var factory interfaces.DocumentStoreFactory = storage.NewStoreFactory(logger).WithBlobDir(blobDir)
	store, err := factory.StoreFor(location)
	if err != nil {
		logger.Error("Failed to create document store", "err", err)
		return err
	}

	// Only the relational backend carries a durable audit trail.
	auditLog := interfaces.AuditLog(storage.NewNoopAuditLog(logger))
	databaseBacked := false
	if pg, ok := store.(*storage.PostgresStore); ok {
		auditLog = pg.AuditLog()
		databaseBacked = true
	}

	logger.Info("Document store ready", "store", store.Name(), "databaseBacked", databaseBacked)

	handler := httpserver.NewHandler(store, auditLog, cryptoStatus, databaseBacked, logger)

	cfg := flags.ConfigureServer(cCtx, logger, listenAddr)
	server, err := httpserver.New(cfg, handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	logger.Info("Starting server")
	server.RunInBackground()

	// Wait for termination signal
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	// Shutdown server gracefully, then release the store's connections
	server.Shutdown()
	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close document store", "err", err)
		}
	}
	logger.Info("Server shutdown complete")

	return nil
}
