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
	"gitlab.com/dirk.krummacker/contacts-app/internal/apiclient"
	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logging"
	"gitlab.com/dirk.krummacker/contacts-app/internal/session"
	"gitlab.com/dirk.krummacker/contacts-app/internal/web"
)

// Usage example on the command line:
// > PORT=3000 API_URL=http://localhost:8000 AUTH_SECRET=change-me go run main.go
func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Web.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "could not load configuration:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Server.LogLevel, cfg.Server.Production)

	handler, err := web.New(
		apiclient.New(cfg.Web.APIURL, 10*time.Second),
		session.NewManager(cfg.Web.AuthSecret, cfg.Web.SecureCookie),
		logger,
	)
	if err != nil {
		logger.WithError(err).Fatal("could not set up front-end")
	}
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		logger.WithFields(logrus.Fields{"addr": cfg.Server.Addr, "api": cfg.Web.APIURL}).Info("front-end listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server shutdown failed")
	}
}
