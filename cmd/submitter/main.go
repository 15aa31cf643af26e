// Command submitter floods a wildproof daemon with random proof submissions.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wildproof/wildproof/api"
	"github.com/wildproof/wildproof/client"
	"github.com/wildproof/wildproof/logging"
	"github.com/wildproof/wildproof/registry"
)

type options struct {
	URL       string `long:"url"       description:"Registry REST endpoint"      default:"http://localhost:8080"`
	Principal string `long:"principal" description:"Identity to submit as"       default:"ST1LOAD"`
	Workers   int    `long:"workers"   description:"Concurrent submitters"       default:"10"`
	PerWorker int    `long:"count"     description:"Submissions per submitter"   default:"100"`
}

func randomHash() ([]byte, error) {
	hash := make([]byte, registry.HashSize)
	if _, err := rand.Read(hash); err != nil {
		return nil, err
	}
	return hash, nil
}

func submit(ctx context.Context, cl *client.Client) error {
	proofHash, err := randomHash()
	if err != nil {
		return fmt.Errorf("generating proof hash: %w", err)
	}
	dataHash, err := randomHash()
	if err != nil {
		return fmt.Errorf("generating data hash: %w", err)
	}
	_, err = cl.Submit(ctx, api.SubmitRequest{
		ProofHash:   proofHash,
		DataHash:    dataHash,
		Species:     "Wildebeest",
		PatternType: string(registry.PatternMigration),
		Region:      "Maasai Mara",
		HerdSize:    1500,
		Duration:    21,
		Score:       60,
	})
	return err
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	logger := logging.New(logging.DefaultConfig())
	cl, err := client.New(opts.URL, client.WithPrincipal(opts.Principal), client.WithLogger(logger))
	if err != nil {
		logger.Fatal("creating client", zap.Error(err))
	}

	start := time.Now()
	eg, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < opts.Workers; i++ {
		eg.Go(func() error {
			for j := 0; j < opts.PerWorker; j++ {
				if err := submit(ctx, cl); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logger.Fatal("submission failed", zap.Error(err))
	}
	logger.Info("done",
		zap.Int("submissions", opts.Workers*opts.PerWorker),
		zap.Duration("took", time.Since(start)),
	)
}
