package main

import (
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// Usage example on the command line:
// > go run main.go --url=http://localhost:8000/contacts --timeout=2m
func main() {
	url := pflag.String("url", "http://localhost:8000/contacts", "the endpoint that must answer with 200")
	interval := pflag.Duration("interval", 5*time.Second, "the time between two attempts")
	timeout := pflag.Duration("timeout", 0, "give up after this time (0 waits forever)")
	pflag.Parse()

	client := &http.Client{Timeout: *interval}
	start := time.Now()
	for {
		res, err := client.Get(*url)
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				logrus.WithField("url", *url).Info("service is available")
				return
			}
			logrus.WithField("status", res.StatusCode).Info("service not ready")
		} else {
			logrus.WithError(err).Info("service not reachable")
		}
		waited := time.Since(start)
		if *timeout > 0 && waited >= *timeout {
			logrus.WithField("waited", waited.Round(time.Second)).Error("giving up")
			os.Exit(1)
		}
		logrus.Infof("Waiting %s", waited.Round(time.Second))
		time.Sleep(*interval)
	}
}
