package eventship_test

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/eventship"
)

// Example demonstrates basic embedded usage: create a client, submit a few
// events, and flush before shutdown.
func Example() {
	cfg := eventship.DefaultConfig()
	cfg.WriteKey = "your-write-key"

	client, err := eventship.New(cfg)
	if err != nil {
		fmt.Println("create:", err)
		return
	}

	if err := client.Start(context.Background()); err != nil {
		fmt.Println("start:", err)
		return
	}

	client.Track(map[string]any{"event": "Signed Up", "userId": "u-1"})
	client.PageEvent(map[string]any{"name": "Pricing", "userId": "u-1"})

	// Queued events still held at Stop() are lost; flush first.
	_ = client.Flush(context.Background())
	_ = client.Stop()
}

// Example_tuning shows runtime retuning: the worker reads the tunables on
// each tick, so changes take effect without a restart.
func Example_tuning() {
	cfg := eventship.DefaultConfig()
	cfg.WriteKey = "your-write-key"
	cfg.MaxBatchSize = 50
	cfg.BatchInterval = 5 * time.Second

	client, err := eventship.New(cfg)
	if err != nil {
		fmt.Println("create:", err)
		return
	}
	if err := client.Start(context.Background()); err != nil {
		fmt.Println("start:", err)
		return
	}

	_ = client.SetMaxBatchSize(100)
	_ = client.SetBatchInterval(2 * time.Second)

	_ = client.Stop()
}
