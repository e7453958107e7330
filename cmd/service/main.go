package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logging"
	"gitlab.com/dirk.krummacker/contacts-app/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-app/internal/service"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store/memory"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store/mongo"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store/mysql"
)

// Usage example on the command line:
// > PORT=8000 DATABASE=mysql DBUSER=dirk DBPWD=bullo92 GIN_MODE=release GIN_LOGGING=OFF go run main.go
// > PORT=8000 DATABASE=mongo MONGO_URI=mongodb://localhost:27017 go run main.go
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not load configuration:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Server.LogLevel, cfg.Server.Production)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	contacts, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.WithError(err).WithField("database", cfg.Database.Driver).Fatal("could not open contact store")
	}
	logger.WithField("database", cfg.Database.Driver).Info("contact store ready")

	router := service.SetupHttpRouter(service.New(contacts), service.RouterConfig{
		RequestLogging: cfg.Server.GinLogging,
		Logger:         logger,
		Metrics:        metrics.New(),
	})
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("contacts API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown failed")
	}
	if err := contacts.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("closing contact store failed")
	}
}

// openStore connects to the backend selected with DATABASE.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	case config.DriverMemory:
		logrus.Warn("contacts are kept in memory and lost on restart")
		return memory.New(), nil
	default:
		sqlDB, err := mysql.Open(ctx, cfg.User, cfg.Password, cfg.Host, cfg.Name)
		if err != nil {
			return nil, err
		}
		return mysql.New(sqlDB)
	}
}
