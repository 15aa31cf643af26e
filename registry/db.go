package registry

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	xdr "github.com/nullstyle/go-xdr/xdr3"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

var (
	proofPrefix  = []byte("p/")
	hashPrefix   = []byte("h/")
	updatePrefix = []byte("u/")
	nextIDKey    = []byte("m/next")
)

// database is the in-memory keyed store backing a registry.
// Proofs are immutable between writes, so decoded copies are cached by id.
type database struct {
	db    *leveldb.DB
	cache *lru.Cache
}

func newDatabase(cacheSize int) (*database, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating proof cache: %w", err)
	}
	return &database{db: db, cache: cache}, nil
}

func (db *database) Close() error {
	db.cache.Purge()
	return db.db.Close()
}

func (db *database) NextID() (uint64, error) {
	data, err := db.db.Get(nextIDKey, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("reading next proof id: %w", err)
	}
	return decodeID(data)
}

func (db *database) GetProof(id uint64) (*Proof, error) {
	if cached, ok := db.cache.Get(id); ok {
		return cached.(*Proof).clone(), nil
	}

	data, err := db.db.Get(proofKey(id), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("get proof %d from DB: %w", id, err)
	}

	proof := &Proof{}
	if _, err := xdr.Unmarshal(bytes.NewReader(data), proof); err != nil {
		return nil, fmt.Errorf("failed to deserialize proof %d: %w", id, err)
	}
	if len(proof.Metadata) == 0 {
		proof.Metadata = nil
	}
	db.cache.Add(id, proof)
	return proof.clone(), nil
}

func (db *database) GetUpdate(id uint64) (*ProofUpdate, error) {
	data, err := db.db.Get(updateKey(id), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("get update of proof %d from DB: %w", id, err)
	}

	update := &ProofUpdate{}
	if _, err := xdr.Unmarshal(bytes.NewReader(data), update); err != nil {
		return nil, fmt.Errorf("failed to deserialize update of proof %d: %w", id, err)
	}
	return update, nil
}

func (db *database) HasHash(hash []byte) (bool, error) {
	ok, err := db.db.Has(hashKey(hash), nil)
	if err != nil {
		return false, fmt.Errorf("querying proof hash index: %w", err)
	}
	return ok, nil
}

// InsertProof stores the proof under id, indexes its hash and advances the
// id counter in a single batch.
func (db *database) InsertProof(id uint64, proof *Proof) error {
	serialized, err := serialize(*proof)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	batch.Put(proofKey(id), serialized)
	batch.Put(hashKey(proof.ProofHash), encodeID(id))
	batch.Put(nextIDKey, encodeID(id+1))
	if err := db.db.Write(batch, nil); err != nil {
		return fmt.Errorf("storing proof %d in DB: %w", id, err)
	}
	return nil
}

// SaveVerification overwrites the proof and its update record in a single batch.
func (db *database) SaveVerification(id uint64, proof *Proof, update *ProofUpdate) error {
	serializedProof, err := serialize(*proof)
	if err != nil {
		return err
	}
	serializedUpdate, err := serialize(*update)
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	batch.Put(proofKey(id), serializedProof)
	batch.Put(updateKey(id), serializedUpdate)
	if err := db.db.Write(batch, nil); err != nil {
		return fmt.Errorf("storing verification of proof %d in DB: %w", id, err)
	}
	db.cache.Remove(id)
	return nil
}

func serialize(v any) ([]byte, error) {
	var dataBuf bytes.Buffer
	if _, err := xdr.Marshal(&dataBuf, v); err != nil {
		return nil, fmt.Errorf("serialization failure: %w", err)
	}
	return dataBuf.Bytes(), nil
}

func proofKey(id uint64) []byte {
	return append(bytes.Clone(proofPrefix), encodeID(id)...)
}

func updateKey(id uint64) []byte {
	return append(bytes.Clone(updatePrefix), encodeID(id)...)
}

func hashKey(hash []byte) []byte {
	return append(bytes.Clone(hashPrefix), hash...)
}

func encodeID(id uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, id)
}

func decodeID(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("malformed id: %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
