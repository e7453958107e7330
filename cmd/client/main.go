package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gitlab.com/dirk.krummacker/contacts-app/internal/apiclient"
	"gitlab.com/dirk.krummacker/contacts-app/pkg/model"
)

// Usage example on the command line:
// > go run main.go --url=http://localhost:8000 --sizes=1000,5000
func main() {
	baseURL := pflag.String("url", "http://localhost:8000", "base URL of the contacts API")
	token := pflag.String("token", "", "bearer token sent with every request")
	sizes := pflag.IntSlice("sizes", []int{1000, 5000, 10000, 50000, 100000}, "number of requests per round")
	pflag.Parse()

	client := apiclient.New(*baseURL, 30*time.Second)
	ctx := context.Background()
	contact := model.ContactRequest{
		Avatar:  "https://example.com/antonius.png",
		First:   "Marcus",
		Last:    "Antonius",
		Twitter: "@marcus",
	}

	fmt.Println()
	fmt.Println("  Elements      POST       PUT       GET     PATCH    DELETE ")
	fmt.Println("-------------------------------------------------------------")
	for _, loops := range *sizes {
		fmt.Printf("%10d", loops)
		ids := make([]string, 0, loops)
		{
			// POST requests
			var duration time.Duration
			for i := 0; i < loops; i++ {
				start := time.Now()
				created, err := client.CreateContact(ctx, *token, contact)
				duration += time.Since(start)
				if err != nil {
					logrus.WithError(err).Fatal("could not create contact")
				}
				ids = append(ids, created.Id)
			}
			printAverage(duration, loops)
		}
		callInLoop(ids, func(id string) error {
			_, err := client.UpdateContact(ctx, *token, id, contact)
			return err
		})
		callInLoop(ids, func(id string) error {
			_, err := client.GetContact(ctx, *token, id)
			return err
		})
		callInLoop(ids, func(id string) error {
			_, err := client.ToggleFavorite(ctx, *token, id)
			return err
		})
		callInLoop(ids, func(id string) error {
			return client.DeleteContact(ctx, *token, id)
		})
		fmt.Println()
	}
}

// callInLoop calls f once per id, in random order, and prints the average duration.
func callInLoop(ids []string, f func(id string) error) {
	shuffled := append([]string(nil), ids...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration time.Duration
	for _, id := range shuffled {
		start := time.Now()
		err := f(id)
		duration += time.Since(start)
		if err != nil {
			logrus.WithError(err).WithField("id", id).Fatal("request failed")
		}
	}
	printAverage(duration, len(ids))
}

// printAverage prints the mean duration in microseconds.
func printAverage(total time.Duration, loops int) {
	if loops == 0 {
		fmt.Printf("%10s", "-")
		return
	}
	fmt.Printf("%10d", total.Microseconds()/int64(loops))
}
