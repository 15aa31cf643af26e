package registry

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testProof(fill byte) *Proof {
	return &Proof{
		ProofHash:   bytes.Repeat([]byte{fill}, HashSize),
		DataHash:    bytes.Repeat([]byte{fill + 1}, HashSize),
		Submitter:   "ST1TEST",
		Timestamp:   12,
		Species:     "Caribou",
		PatternType: PatternMigration,
		Region:      "Yukon",
		HerdSize:    2000,
		Duration:    40,
		Metadata:    []byte("collar-7"),
		Score:       55,
	}
}

func TestInsertAndGetProof(t *testing.T) {
	db, err := newDatabase(8)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	next, err := db.NextID()
	require.NoError(t, err)
	require.Zero(t, next)

	proof := testProof(1)
	require.NoError(t, db.InsertProof(0, proof))

	got, err := db.GetProof(0)
	require.NoError(t, err)
	require.Equal(t, proof, got)

	// second read is served from the cache
	_, ok := db.cache.Get(uint64(0))
	require.True(t, ok)
	got, err = db.GetProof(0)
	require.NoError(t, err)
	require.Equal(t, proof, got)

	next, err = db.NextID()
	require.NoError(t, err)
	require.Equal(t, uint64(1), next)

	ok, err = db.HasHash(proof.ProofHash)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = db.HasHash(proof.DataHash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetMissingRecords(t *testing.T) {
	db, err := newDatabase(8)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	_, err = db.GetProof(3)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetUpdate(3)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveVerificationEvictsCache(t *testing.T) {
	db, err := newDatabase(8)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	proof := testProof(1)
	require.NoError(t, db.InsertProof(0, proof))
	_, err = db.GetProof(0)
	require.NoError(t, err)

	proof.Status = true
	proof.Score = 99
	update := &ProofUpdate{UpdateTimestamp: 20, Updater: "ST2VERIFIER", NewStatus: true, NewScore: 99}
	require.NoError(t, db.SaveVerification(0, proof, update))

	_, ok := db.cache.Get(uint64(0))
	require.False(t, ok)

	got, err := db.GetProof(0)
	require.NoError(t, err)
	require.True(t, got.Status)
	require.Equal(t, uint32(99), got.Score)

	gotUpdate, err := db.GetUpdate(0)
	require.NoError(t, err)
	require.Equal(t, update, gotUpdate)

	update = &ProofUpdate{UpdateTimestamp: 21, Updater: "ST2VERIFIER", NewStatus: false, NewScore: 5}
	require.NoError(t, db.SaveVerification(0, proof, update))
	gotUpdate, err = db.GetUpdate(0)
	require.NoError(t, err)
	require.Equal(t, update, gotUpdate)
}

func TestCacheIsBounded(t *testing.T) {
	db, err := newDatabase(2)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	for i := uint64(0); i < 4; i++ {
		require.NoError(t, db.InsertProof(i, testProof(byte(i*2))))
		_, err := db.GetProof(i)
		require.NoError(t, err)
	}
	require.Equal(t, 2, db.cache.Len())

	// evicted entries are read back from the store
	got, err := db.GetProof(0)
	require.NoError(t, err)
	require.Equal(t, testProof(0), got)
}

func TestIdKeysAreOrdered(t *testing.T) {
	require.Negative(t, bytes.Compare(proofKey(1), proofKey(256)))
	id, err := decodeID(encodeID(1 << 40))
	require.NoError(t, err)
	require.Equal(t, uint64(1<<40), id)
	_, err = decodeID([]byte{1, 2})
	require.Error(t, err)
}
