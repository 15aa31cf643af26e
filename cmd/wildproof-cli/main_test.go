package main

import (
	"bytes"
	"crypto/sha256"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func TestHashFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "collar.gpx")
	data := []byte("<gpx>-1.2921,36.8219</gpx>")
	require.NoError(t, os.WriteFile(name, data, 0o600))

	got, err := hashFile(name)
	require.NoError(t, err)
	want := sha256.Sum256(data)
	require.Equal(t, want[:], got)
}

func hashContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("proof-hash", "", "")
	set.String("proof-file", "", "")
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestHashArg(t *testing.T) {
	t.Run("hex", func(t *testing.T) {
		hash, err := hashArg(hashContext(t, "-proof-hash", "abcd"), "proof-hash", "proof-file")
		require.NoError(t, err)
		require.Equal(t, []byte{0xab, 0xcd}, hash)
	})
	t.Run("file", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "proof")
		require.NoError(t, os.WriteFile(name, bytes.Repeat([]byte{1}, 10), 0o600))
		hash, err := hashArg(hashContext(t, "-proof-file", name), "proof-hash", "proof-file")
		require.NoError(t, err)
		require.Len(t, hash, sha256.Size)
	})
	t.Run("both", func(t *testing.T) {
		_, err := hashArg(hashContext(t, "-proof-hash", "ab", "-proof-file", "x"), "proof-hash", "proof-file")
		require.Error(t, err)
	})
	t.Run("neither", func(t *testing.T) {
		_, err := hashArg(hashContext(t), "proof-hash", "proof-file")
		require.Error(t, err)
	})
}
