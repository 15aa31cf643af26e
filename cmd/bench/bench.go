package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/minio/sha256-simd"

	"github.com/wildproof/wildproof/registry"
)

const (
	benchAdmin     = "admin"
	benchVerifier  = "bench-verifier"
	benchSubmitter = "bench-submitter"
)

func main() {
	runtime.MemProfileRate = 0
	println("Memory profiling disabled.")

	cfg, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}

	if cfg.CPU {
		dir, err := os.Getwd()
		if err != nil {
			log.Fatal("cant get current dir", err)
		}

		profFilePath := path.Join(dir, "./CPU.prof")
		fmt.Printf("CPU profile: %s\n", profFilePath)

		f, err := os.Create(profFilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()

		println("Cpu profiling enabled and started...")
	}

	numProofs := uint64(1) << cfg.N
	regCfg := registry.DefaultConfig()
	regCfg.Admin = benchAdmin
	regCfg.Verifier = benchVerifier
	regCfg.MaxProofs = numProofs

	ctx := context.Background()
	reg, err := registry.New(ctx, registry.WithConfig(regCfg), registry.WithClock(registry.NewManualClock(0)))
	if err != nil {
		log.Fatal("creating registry: ", err)
	}
	defer reg.Close()
	fmt.Printf("numProofs: %d\n", numProofs)

	t1 := time.Now()
	for i := uint64(0); i < numProofs; i++ {
		if _, err := reg.Submit(ctx, benchSubmitter, submission(i)); err != nil {
			log.Fatalf("submitting proof %d: %v", i, err)
		}
	}
	e := time.Since(t1)
	fmt.Printf("Proofs submitted in %s (%f)\n", e, e.Seconds())

	t1 = time.Now()
	for i := uint64(0); i < numProofs; i++ {
		if _, err := reg.Verify(ctx, benchVerifier, i, true, 90); err != nil {
			log.Fatalf("verifying proof %d: %v", i, err)
		}
	}
	e1 := time.Since(t1)
	fmt.Printf("Proofs verified in %s (%f)\n", e1, e1.Seconds())

	fmt.Printf("%d %f %f\n", numProofs, e.Seconds(), e1.Seconds())
}

func submission(i uint64) registry.Submission {
	seed := binary.BigEndian.AppendUint64(nil, i)
	proofHash := sha256.Sum256(append([]byte("proof"), seed...))
	dataHash := sha256.Sum256(append([]byte("data"), seed...))
	return registry.Submission{
		ProofHash:   proofHash[:],
		DataHash:    dataHash[:],
		Species:     "Caribou",
		PatternType: registry.PatternMigration,
		Region:      "Arctic",
		HerdSize:    400,
		Duration:    60,
		Score:       70,
	}
}
