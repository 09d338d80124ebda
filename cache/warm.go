package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	log "github.com/sirupsen/logrus"
)

// WarmTask fills one named cache from the backing store.
type WarmTask struct {
	Name string
	Fill func(context.Context) error
}

const warmMaxTries = 3

var warmInitialInterval = time.Second

// Warm runs the warm-up tasks sequentially, retrying each with exponential
// backoff. Exhausting the retries of any task is fatal for the caller: the
// process must refuse to serve traffic.
func Warm(ctx context.Context, tasks []WarmTask) error {
	for _, task := range tasks {
		start := time.Now()

		b := backoff.NewExponentialBackOff()
		b.InitialInterval = warmInitialInterval
		b.RandomizationFactor = 0
		b.Multiplier = 2

		attempt := 0
		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			attempt++
			if err := task.Fill(ctx); err != nil {
				log.Infof("warming cache %s failed on attempt %d, retrying: %v", task.Name, attempt, err)
				return struct{}{}, err
			}

			return struct{}{}, nil
		}, backoff.WithBackOff(b), backoff.WithMaxTries(warmMaxTries))

		if err != nil {
			return fmt.Errorf("warming cache %s: %w", task.Name, err)
		}

		log.Infof("cache %s warm after %v", task.Name, time.Since(start))
	}

	return nil
}
