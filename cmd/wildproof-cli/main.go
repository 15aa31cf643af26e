package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/minio/sha256-simd"
	"github.com/urfave/cli"

	"github.com/wildproof/wildproof/api"
	"github.com/wildproof/wildproof/client"
)

var version = "unknown"

func newClient(c *cli.Context) (*client.Client, error) {
	return client.New(
		c.GlobalString("url"),
		client.WithPrincipal(c.GlobalString("principal")),
		client.WithRetryMax(c.GlobalInt("retries")),
	)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// hashArg returns the hash given in hex under hexFlag, or the SHA-256 of the
// file named under fileFlag.
func hashArg(c *cli.Context, hexFlag, fileFlag string) ([]byte, error) {
	switch {
	case c.String(hexFlag) != "" && c.String(fileFlag) != "":
		return nil, fmt.Errorf("--%s and --%s are mutually exclusive", hexFlag, fileFlag)
	case c.String(hexFlag) != "":
		return hex.DecodeString(c.String(hexFlag))
	case c.String(fileFlag) != "":
		return hashFile(c.String(fileFlag))
	default:
		return nil, fmt.Errorf("one of --%s or --%s is required", hexFlag, fileFlag)
	}
}

func hashFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

func proofIDArg(c *cli.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid proof id %q: %w", c.Args().First(), err)
	}
	return id, nil
}

func valueArg(c *cli.Context) (uint64, error) {
	value, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", c.Args().First(), err)
	}
	return value, nil
}

func submit(c *cli.Context) error {
	proofHash, err := hashArg(c, "proof-hash", "proof-file")
	if err != nil {
		return err
	}
	dataHash, err := hashArg(c, "data-hash", "data-file")
	if err != nil {
		return err
	}
	cl, err := newClient(c)
	if err != nil {
		return err
	}
	id, err := cl.Submit(context.Background(), api.SubmitRequest{
		ProofHash:   proofHash,
		DataHash:    dataHash,
		Species:     c.String("species"),
		PatternType: c.String("pattern"),
		Region:      c.String("region"),
		HerdSize:    c.Uint64("herd-size"),
		Duration:    c.Uint64("duration"),
		Metadata:    []byte(c.String("metadata")),
		Score:       uint32(c.Uint("score")),
	})
	if err != nil {
		return err
	}
	return printJSON(api.SubmitResponse{ID: id})
}

func verify(c *cli.Context) error {
	id, err := proofIDArg(c)
	if err != nil {
		return err
	}
	cl, err := newClient(c)
	if err != nil {
		return err
	}
	update, err := cl.Verify(context.Background(), id, !c.Bool("reject"), uint32(c.Uint("score")))
	if err != nil {
		return err
	}
	return printJSON(update)
}

func setter(set func(cl *client.Client, value uint64) (*api.Settings, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		value, err := valueArg(c)
		if err != nil {
			return err
		}
		cl, err := newClient(c)
		if err != nil {
			return err
		}
		settings, err := set(cl, value)
		if err != nil {
			return err
		}
		return printJSON(settings)
	}
}

func main() {
	ctx := context.Background()
	hashFlags := []cli.Flag{
		cli.StringFlag{Name: "proof-hash", Usage: "hex encoded 32-byte proof hash"},
		cli.StringFlag{Name: "proof-file", Usage: "file whose SHA-256 is the proof hash"},
		cli.StringFlag{Name: "data-hash", Usage: "hex encoded 32-byte data hash"},
		cli.StringFlag{Name: "data-file", Usage: "file whose SHA-256 is the data hash"},
	}

	app := cli.NewApp()
	app.Name = "wildproof-cli"
	app.Usage = "interact with a wildproof registry"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "url", Value: "http://localhost:8080", EnvVar: "WILDPROOF_URL", Usage: "registry REST endpoint"},
		cli.StringFlag{Name: "principal", EnvVar: "WILDPROOF_PRINCIPAL", Usage: "identity to act as"},
		cli.IntFlag{Name: "retries", Value: 3, Usage: "maximum retries of failed requests"},
	}
	app.Commands = []cli.Command{
		{
			Name:  "submit",
			Usage: "submit a migration proof",
			Flags: append(hashFlags,
				cli.StringFlag{Name: "species", Usage: "observed species"},
				cli.StringFlag{Name: "pattern", Value: "migration", Usage: "migration, breeding or feeding"},
				cli.StringFlag{Name: "region", Usage: "observed region"},
				cli.Uint64Flag{Name: "herd-size", Usage: "number of animals"},
				cli.Uint64Flag{Name: "duration", Usage: "observation duration"},
				cli.StringFlag{Name: "metadata", Usage: "free-form metadata"},
				cli.UintFlag{Name: "score", Usage: "submitter confidence score (0-100)"},
			),
			Action: submit,
		},
		{
			Name:      "verify",
			Usage:     "attest a submitted proof",
			ArgsUsage: "<proof id>",
			Flags: []cli.Flag{
				cli.UintFlag{Name: "score", Usage: "verifier score (0-100)"},
				cli.BoolFlag{Name: "reject", Usage: "record the proof as not valid"},
			},
			Action: verify,
		},
		{
			Name:      "proof",
			Usage:     "show a proof",
			ArgsUsage: "<proof id>",
			Action: func(c *cli.Context) error {
				id, err := proofIDArg(c)
				if err != nil {
					return err
				}
				cl, err := newClient(c)
				if err != nil {
					return err
				}
				proof, err := cl.Proof(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(proof)
			},
		},
		{
			Name:      "update",
			Usage:     "show the verification record of a proof",
			ArgsUsage: "<proof id>",
			Action: func(c *cli.Context) error {
				id, err := proofIDArg(c)
				if err != nil {
					return err
				}
				cl, err := newClient(c)
				if err != nil {
					return err
				}
				update, err := cl.ProofUpdate(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(update)
			},
		},
		{
			Name:  "count",
			Usage: "show the number of accepted proofs",
			Action: func(c *cli.Context) error {
				cl, err := newClient(c)
				if err != nil {
					return err
				}
				count, err := cl.ProofCount(ctx)
				if err != nil {
					return err
				}
				return printJSON(api.CountResponse{Count: count})
			},
		},
		{
			Name:  "exists",
			Usage: "check whether a proof hash was accepted",
			Flags: hashFlags[:2],
			Action: func(c *cli.Context) error {
				hash, err := hashArg(c, "proof-hash", "proof-file")
				if err != nil {
					return err
				}
				cl, err := newClient(c)
				if err != nil {
					return err
				}
				exists, err := cl.ProofExists(ctx, hash)
				if err != nil {
					return err
				}
				return printJSON(api.ExistsResponse{Exists: exists})
			},
		},
		{
			Name:  "settings",
			Usage: "show the registry settings",
			Action: func(c *cli.Context) error {
				cl, err := newClient(c)
				if err != nil {
					return err
				}
				settings, err := cl.Settings(ctx)
				if err != nil {
					return err
				}
				return printJSON(settings)
			},
		},
		{
			Name:      "set-verifier",
			Usage:     "change the verifier (admin only)",
			ArgsUsage: "<principal>",
			Action: func(c *cli.Context) error {
				cl, err := newClient(c)
				if err != nil {
					return err
				}
				settings, err := cl.SetVerifier(ctx, c.Args().First())
				if err != nil {
					return err
				}
				return printJSON(settings)
			},
		},
		{
			Name:      "set-max-proofs",
			Usage:     "change the proof capacity (admin only)",
			ArgsUsage: "<value>",
			Action: setter(func(cl *client.Client, v uint64) (*api.Settings, error) {
				return cl.SetMaxProofs(ctx, v)
			}),
		},
		{
			Name:      "set-fee",
			Usage:     "change the submission fee (admin only)",
			ArgsUsage: "<value>",
			Action: setter(func(cl *client.Client, v uint64) (*api.Settings, error) {
				return cl.SetSubmissionFee(ctx, v)
			}),
		},
		{
			Name:      "set-min-stake",
			Usage:     "change the minimum stake (admin only)",
			ArgsUsage: "<value>",
			Action: setter(func(cl *client.Client, v uint64) (*api.Settings, error) {
				return cl.SetMinStake(ctx, v)
			}),
		},
		{
			Name:      "set-expiry",
			Usage:     "change the proof expiry in time units (admin only)",
			ArgsUsage: "<value>",
			Action: setter(func(cl *client.Client, v uint64) (*api.Settings, error) {
				return cl.SetProofExpiry(ctx, v)
			}),
		},
		{
			Name:  "transfers",
			Usage: "list fee transfers recorded by the daemon",
			Action: func(c *cli.Context) error {
				cl, err := newClient(c)
				if err != nil {
					return err
				}
				transfers, err := cl.Transfers(ctx)
				if err != nil {
					return err
				}
				return printJSON(api.TransfersResponse{Transfers: transfers})
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
