/*
	Churn workload against a running caskdb server. Overwrites and deletes a
	fixed set of keys so the log fills with dead records.
*/

package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/0xRadioAc7iv/go-caskdb/client"
	"github.com/0xRadioAc7iv/go-caskdb/internal/config"
	"github.com/0xRadioAc7iv/go-caskdb/internal/logging"
)

const (
	// Fixed universe
	totalKeys   = 100
	totalValues = 100

	// Per-cycle behavior
	keysPerCycleWrite  = 20
	keysPerCycleDelete = 10

	sleepBetweenCycles = 10 * time.Millisecond

	progressEvery = 500
)

func main() {
	host := flag.String("host", config.DefaultHost, "caskdb server host")
	port := flag.Int("port", config.DefaultPort, "caskdb server port")
	concurrency := flag.Int("workers", 6, "number of concurrent clients")
	cycles := flag.Int("cycles", 5000, "cycles per worker")
	flag.Parse()

	logger, err := logging.NewConsole("info")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	start := time.Now()
	logger.Info("starting churn-heavy load generator", zap.Int("workers", *concurrency), zap.Int("cycles", *cycles))

	keys := makeKeys(totalKeys)
	values := makeValues(totalValues)

	var wg sync.WaitGroup

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(id, *host, *port, *cycles, keys, values, logger.With(zap.Int("worker", id)))
		}(i)
	}

	wg.Wait()
	logger.Info("load finished", zap.Duration("elapsed", time.Since(start)))
}

func runWorker(id int, host string, port, cycles int, keys, values []string, logger *zap.Logger) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	c, err := client.Connect(client.WithHost(host), client.WithPort(port))
	if err != nil {
		logger.Error("connect error", zap.Error(err))
		return
	}
	defer c.Close()

	for cycle := 1; cycle <= cycles; cycle++ {

		// ---- WRITE / OVERWRITE PHASE ----
		for i := 0; i < keysPerCycleWrite; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]

			if err := c.Set(key, val); err != nil {
				logger.Error("SET error", zap.Error(err))
				return
			}
		}

		// ---- DELETE PHASE ----
		for i := 0; i < keysPerCycleDelete; i++ {
			key := keys[rng.Intn(len(keys))]

			if _, err := c.Delete(key); err != nil {
				logger.Error("DELETE error", zap.Error(err))
				return
			}
		}

		// ---- REWRITE PHASE (forces overwrite garbage) ----
		for i := 0; i < keysPerCycleWrite/2; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]

			if err := c.Set(key, val); err != nil {
				logger.Error("REWRITE error", zap.Error(err))
				return
			}
		}

		if cycle%progressEvery == 0 {
			logger.Info("progress", zap.Int("cycles", cycle))
		}

		if sleepBetweenCycles > 0 {
			time.Sleep(sleepBetweenCycles)
		}
	}
}

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("key-%03d", i)
	}
	return keys
}

func makeValues(n int) []string {
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = fmt.Sprintf("value-%03d-xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", i)
	}
	return values
}
