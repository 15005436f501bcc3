package scraper

import (
	"context"
	"math/rand"
	"time"
)

// Delay draws a duration uniformly from [lower, upper]. Fixed intervals are
// trivially fingerprinted by anti-bot systems, so every pause the crawler
// takes goes through here.
func Delay(lower, upper time.Duration) time.Duration {
	if upper <= lower {
		return lower
	}
	return lower + time.Duration(rand.Int63n(int64(upper-lower)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
