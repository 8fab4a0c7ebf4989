// SPDX-License-Identifier: MIT

// Package store persists built reaction networks so a graph can be loaded
// instead of rebuilt.
//
// Snapshots are stored in BadgerDB as zstd-compressed JSON. Each one is keyed
// by a BLAKE3 fingerprint of what determines the graph: the entries, the
// build settings, the precursors and the targets. Two networks with the same
// fingerprint have isomorphic graphs, so a hit can be restored directly.
//
// Key layout:
//
//	meta/<fingerprint>              → Record (JSON)
//	blob/<record id>                → zstd(JSON(network.Snapshot))
//	chemsys/<chemsys>/<fingerprint> → empty, for listing by chemical system
package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"

	"github.com/katalvlaran/rxnpath/chem"
	"github.com/katalvlaran/rxnpath/network"
)

// Sentinel errors.
var (
	// ErrNotFound indicates no snapshot is stored under the fingerprint.
	ErrNotFound = errors.New("store: snapshot not found")
	// ErrNoPath indicates a persistent store was requested without a directory.
	ErrNoPath = errors.New("store: directory is required")
	// ErrNilSnapshot indicates Put was called with nil.
	ErrNilSnapshot = errors.New("store: nil snapshot")
)

const (
	metaPrefix    = "meta/"
	blobPrefix    = "blob/"
	chemsysPrefix = "chemsys/"
)

// Config configures Open.
type Config struct {
	// Dir holds the database files. Ignored when InMemory is set.
	Dir string
	// InMemory keeps everything in RAM; intended for tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	// Logger receives BadgerDB's own messages. Nil silences them.
	Logger *slog.Logger
}

// Record describes one stored snapshot.
type Record struct {
	ID          string    `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	Chemsys     string    `json:"chemsys"`
	Target      string    `json:"target"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
	RawBytes    int       `json:"raw_bytes"`
	StoredBytes int       `json:"stored_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is a snapshot store. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	logger *slog.Logger
}

// badgerLogger adapts slog to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens (creating if needed) a snapshot store.
//
// Errors: ErrNoPath, wrapped filesystem and badger errors.
func Open(cfg Config) (*Store, error) {
	// 1) Badger options
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, ErrNoPath
		}
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	// 2) Codecs; EncodeAll and DecodeAll are safe for concurrent use.
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("store: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("store: zstd decoder: %w", err)
	}

	db, err := badger.Open(opts)
	if err != nil {
		enc.Close()
		dec.Close()
		return nil, fmt.Errorf("store: open badger: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, enc: enc, dec: dec, logger: logger}, nil
}

// OpenInMemory opens a volatile store.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

// Close releases the database and codecs.
func (s *Store) Close() error {
	s.dec.Close()
	encErr := s.enc.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return encErr
}

// fingerprintInput is what determines a network's graph.
type fingerprintInput struct {
	MaxComponents   int                `json:"max_num_components"`
	CostFunction    string             `json:"cost_function"`
	ComplexLoopback bool               `json:"complex_loopback"`
	Entries         []chem.EntryRecord `json:"entries"`
	Precursors      []string           `json:"precursors"`
	Target          string             `json:"target"`
	Targets         []string           `json:"targets"`
}

// Fingerprint returns the hex BLAKE3-256 digest identifying the graph that
// snap describes. Entry order does not matter.
func Fingerprint(snap *network.Snapshot) (string, error) {
	if snap == nil {
		return "", ErrNilSnapshot
	}
	in := fingerprintInput{
		MaxComponents:   snap.MaxComponents,
		CostFunction:    snap.CostFunction,
		ComplexLoopback: snap.ComplexLoopback,
		Entries:         append([]chem.EntryRecord(nil), snap.Entries...),
		Precursors:      snap.Precursors,
		Target:          snap.Target,
		Targets:         snap.Targets,
	}
	sort.Slice(in.Entries, func(i, j int) bool {
		a, b := in.Entries[i], in.Entries[j]
		if a.Formula != b.Formula {
			return a.Formula < b.Formula
		}
		if a.Tag != b.Tag {
			return a.Tag < b.Tag
		}
		return a.Energy < b.Energy
	})
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("store: fingerprint: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Put stores snap under its fingerprint, replacing any earlier snapshot of
// the same graph.
//
// Steps:
//  1. Fingerprint and encode (JSON then zstd).
//  2. In one transaction: drop the old blob, write blob, record and the
//     chemsys index key.
//
// Errors: ErrNilSnapshot, ctx errors, wrapped codec and badger errors.
func (s *Store) Put(ctx context.Context, snap *network.Snapshot) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, fmt.Errorf("store: put: %w", err)
	}
	fp, err := Fingerprint(snap)
	if err != nil {
		return Record{}, err
	}

	// 1) Encode
	raw, err := json.Marshal(snap)
	if err != nil {
		return Record{}, fmt.Errorf("store: encode snapshot: %w", err)
	}
	blob := s.enc.EncodeAll(raw, nil)
	rec := Record{
		ID:          uuid.NewString(),
		Fingerprint: fp,
		Chemsys:     snap.Chemsys,
		Target:      snap.Target,
		Nodes:       len(snap.Nodes),
		Edges:       len(snap.Edges),
		RawBytes:    len(raw),
		StoredBytes: len(blob),
		CreatedAt:   time.Now().UTC(),
	}
	meta, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("store: encode record: %w", err)
	}

	// 2) Write
	err = s.db.Update(func(txn *badger.Txn) error {
		if old, err := getRecord(txn, fp); err == nil {
			if err = txn.Delete([]byte(blobPrefix + old.ID)); err != nil {
				return err
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := txn.Set([]byte(blobPrefix+rec.ID), blob); err != nil {
			return err
		}
		if err := txn.Set([]byte(metaPrefix+fp), meta); err != nil {
			return err
		}
		return txn.Set(chemsysKey(rec.Chemsys, fp), []byte{})
	})
	if err != nil {
		return Record{}, fmt.Errorf("store: put: %w", err)
	}

	s.logger.Debug("snapshot stored",
		slog.String("fingerprint", fp),
		slog.String("id", rec.ID),
		slog.Int("raw_bytes", rec.RawBytes),
		slog.Int("stored_bytes", rec.StoredBytes),
	)
	return rec, nil
}

// Get loads the snapshot stored under fingerprint.
//
// Errors: ErrNotFound, ctx errors, wrapped codec and badger errors.
func (s *Store) Get(ctx context.Context, fingerprint string) (*network.Snapshot, Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, Record{}, fmt.Errorf("store: get: %w", err)
	}

	var (
		rec  Record
		blob []byte
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if rec, err = getRecord(txn, fingerprint); err != nil {
			return err
		}
		item, err := txn.Get([]byte(blobPrefix + rec.ID))
		if err != nil {
			return fmt.Errorf("blob %s: %w", rec.ID, err)
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, Record{}, err
		}
		return nil, Record{}, fmt.Errorf("store: get: %w", err)
	}

	raw, err := s.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, Record{}, fmt.Errorf("store: decompress %s: %w", fingerprint, err)
	}
	var snap network.Snapshot
	if err = json.Unmarshal(raw, &snap); err != nil {
		return nil, Record{}, fmt.Errorf("store: decode %s: %w", fingerprint, err)
	}

	return &snap, rec, nil
}

// Load restores the network stored under fingerprint. opts apply to the
// restored network as in network.Restore.
//
// Errors: as Get, plus network.Restore errors.
func (s *Store) Load(ctx context.Context, fingerprint string, opts ...network.Option) (*network.Network, error) {
	snap, _, err := s.Get(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	return network.Restore(ctx, snap, opts...)
}

// Save snapshots n and stores it.
func (s *Store) Save(ctx context.Context, n *network.Network) (Record, error) {
	snap, err := n.Snapshot()
	if err != nil {
		return Record{}, err
	}
	return s.Put(ctx, snap)
}

// List returns the records stored for chemsys, oldest first. An empty
// chemsys lists everything.
func (s *Store) List(ctx context.Context, chemsys string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		if chemsys == "" {
			opts.Prefix = []byte(chemsysPrefix)
		} else {
			opts.Prefix = []byte(chemsysPrefix + chemsys + "/")
		}
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(it.Item().Key())
			fp := key[len(key)-fingerprintLen:]
			rec, err := getRecord(txn, fp)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Delete removes the snapshot stored under fingerprint.
//
// Errors: ErrNotFound, wrapped badger errors.
func (s *Store) Delete(ctx context.Context, fingerprint string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, fingerprint)
		if err != nil {
			return err
		}
		if err = txn.Delete([]byte(blobPrefix + rec.ID)); err != nil {
			return err
		}
		if err = txn.Delete(chemsysKey(rec.Chemsys, fingerprint)); err != nil {
			return err
		}
		return txn.Delete([]byte(metaPrefix + fingerprint))
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("store: delete: %w", err)
	}
	return nil
}

// fingerprintLen is the hex length of a BLAKE3-256 digest.
const fingerprintLen = 64

func chemsysKey(chemsys, fp string) []byte {
	return []byte(chemsysPrefix + chemsys + "/" + fp)
}

func getRecord(txn *badger.Txn, fp string) (Record, error) {
	item, err := txn.Get([]byte(metaPrefix + fp))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, fp)
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}
