// Package snapshot exports and imports the full ledger state.
//
// A snapshot is a msgpack stream: a Manifest, then chunks of records (each
// chunk a msgpack list of key/value pairs, compressed on its own), then a
// Trailer with the record count and a SHA-512 half digest of the snapshot
// hash prefix followed by every key and value in export order.
package snapshot

import (
	"bytes"
	"crypto/sha512"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/keylet"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/protocol"
)

const (
	// Magic identifies a snapshot stream
	Magic = "propledger-snapshot"

	// Version is the current format version
	Version = 1

	// DefaultChunkRecords is the number of records per chunk
	DefaultChunkRecords = 4096
)

var (
	// ErrNotSnapshot is returned when the stream does not start with a manifest
	ErrNotSnapshot = errors.New("not a propledger snapshot")

	// ErrDigestMismatch is returned when the records do not match the trailer
	ErrDigestMismatch = errors.New("snapshot digest mismatch")

	// ErrTargetNotEmpty is returned when importing into an initialized ledger
	ErrTargetNotEmpty = errors.New("import target already holds a ledger")
)

// Manifest opens a snapshot.
type Manifest struct {
	Magic       string        `codec:"magic"`
	Version     int           `codec:"version"`
	Compression string        `codec:"compression"`
	CreatedAt   int64         `codec:"created_at"`
	Header      *entry.Header `codec:"header"`
}

// Chunk carries a compressed batch of records. The last chunk of a stream is
// empty with Final set and is followed by the trailer.
type Chunk struct {
	Records int    `codec:"records"`
	RawSize int    `codec:"raw_size"`
	Stored  bool   `codec:"stored"`
	Data    []byte `codec:"data"`
	Final   bool   `codec:"final"`
}

// Trailer closes a snapshot.
type Trailer struct {
	Entries uint64   `codec:"entries"`
	Digest  [32]byte `codec:"digest"`
}

type record struct {
	Key  [32]byte `codec:"k"`
	Data []byte   `codec:"v"`
}

// Options tune an export.
type Options struct {
	Compression  string
	ChunkRecords int
	Now          time.Time
}

func (o Options) withDefaults() Options {
	if o.Compression == "" {
		o.Compression = "lz4"
	}
	if o.ChunkRecords <= 0 {
		o.ChunkRecords = DefaultChunkRecords
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// Info summarizes an export or import.
type Info struct {
	Entries uint64        `json:"entries"`
	Chunks  int           `json:"chunks"`
	Header  *entry.Header `json:"header,omitempty"`
	Digest  string        `json:"digest"`
}

// Export writes every entry of r to w.
func Export(r view.Reader, w io.Writer, opts Options) (*Info, error) {
	opts = opts.withDefaults()
	comp, err := GetCompressor(opts.Compression)
	if err != nil {
		return nil, err
	}
	header, err := view.Get[entry.Header](r, keylet.Header())
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, errors.New("snapshot: ledger has no header")
	}

	enc := entry.NewStreamEncoder(w)
	manifest := Manifest{
		Magic:       Magic,
		Version:     Version,
		Compression: comp.Name(),
		CreatedAt:   opts.Now.Unix(),
		Header:      header,
	}
	if err := enc.Encode(&manifest); err != nil {
		return nil, fmt.Errorf("snapshot: write manifest: %w", err)
	}

	info := &Info{Header: header}
	digest := sha512.New()
	digest.Write(protocol.HashPrefixSnapshot[:])
	batch := make([]record, 0, opts.ChunkRecords)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		raw, err := entry.EncodeValue(batch)
		if err != nil {
			return fmt.Errorf("snapshot: encode chunk: %w", err)
		}
		data, stored, err := comp.Compress(raw)
		if err != nil {
			return err
		}
		chunk := Chunk{Records: len(batch), RawSize: len(raw), Stored: stored, Data: data}
		if err := enc.Encode(&chunk); err != nil {
			return fmt.Errorf("snapshot: write chunk: %w", err)
		}
		info.Chunks++
		batch = batch[:0]
		return nil
	}

	var flushErr error
	err = r.ForEach(nil, func(key [32]byte, data []byte) bool {
		digest.Write(key[:])
		digest.Write(data)
		batch = append(batch, record{Key: key, Data: data})
		info.Entries++
		if len(batch) == opts.ChunkRecords {
			flushErr = flush()
		}
		return flushErr == nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: read ledger: %w", err)
	}
	if flushErr != nil {
		return nil, flushErr
	}
	if err := flush(); err != nil {
		return nil, err
	}

	trailer := Trailer{Entries: info.Entries}
	copy(trailer.Digest[:], digest.Sum(nil))
	if err := enc.Encode(&Chunk{Final: true}); err != nil {
		return nil, fmt.Errorf("snapshot: write end marker: %w", err)
	}
	if err := enc.Encode(&trailer); err != nil {
		return nil, fmt.Errorf("snapshot: write trailer: %w", err)
	}
	info.Digest = fmt.Sprintf("%X", trailer.Digest)
	return info, nil
}

// Import reads a snapshot from rd and commits it to target, which must not
// hold a ledger yet. Every entry is decoded before anything is written, so a
// corrupt snapshot leaves target untouched.
func Import(target view.Committer, rd io.Reader) (*Info, error) {
	initialized, err := genesis.Initialized(target)
	if err != nil {
		return nil, err
	}
	if initialized {
		return nil, ErrTargetNotEmpty
	}

	dec := entry.NewStreamDecoder(rd)
	var manifest Manifest
	if err := dec.Decode(&manifest); err != nil || manifest.Magic != Magic {
		return nil, ErrNotSnapshot
	}
	if manifest.Version != Version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", manifest.Version)
	}
	comp, err := GetCompressor(manifest.Compression)
	if err != nil {
		return nil, err
	}

	info := &Info{Header: manifest.Header}
	digest := sha512.New()
	digest.Write(protocol.HashPrefixSnapshot[:])
	var changes []view.Change
	for {
		var chunk Chunk
		if err := dec.Decode(&chunk); err != nil {
			return nil, fmt.Errorf("snapshot: read chunk %d: %w", info.Chunks, err)
		}
		if chunk.Final {
			break
		}
		raw := chunk.Data
		if !chunk.Stored {
			if raw, err = comp.Decompress(chunk.Data, chunk.RawSize); err != nil {
				return nil, fmt.Errorf("snapshot: chunk %d: %w", info.Chunks, err)
			}
		}
		var records []record
		if err := entry.NewStreamDecoder(bytes.NewReader(raw)).Decode(&records); err != nil {
			return nil, fmt.Errorf("snapshot: decode chunk %d: %w", info.Chunks, err)
		}
		if len(records) != chunk.Records {
			return nil, fmt.Errorf("snapshot: chunk %d has %d records, expected %d", info.Chunks, len(records), chunk.Records)
		}
		for _, rec := range records {
			if err := checkRecord(rec); err != nil {
				return nil, err
			}
			digest.Write(rec.Key[:])
			digest.Write(rec.Data)
			changes = append(changes, view.Change{Key: rec.Key, Action: view.ActionInsert, Data: rec.Data})
		}
		info.Chunks++
	}

	var trailer Trailer
	if err := dec.Decode(&trailer); err != nil {
		return nil, fmt.Errorf("snapshot: read trailer: %w", err)
	}
	var sum [32]byte
	copy(sum[:], digest.Sum(nil))
	if trailer.Entries != uint64(len(changes)) || trailer.Digest != sum {
		return nil, ErrDigestMismatch
	}

	if err := target.Commit(changes); err != nil {
		return nil, fmt.Errorf("snapshot: commit: %w", err)
	}
	info.Entries = trailer.Entries
	info.Digest = fmt.Sprintf("%X", sum)
	return info, nil
}

// checkRecord rejects keys outside the known tables and values that do not
// decode as their table's entry type.
func checkRecord(rec record) error {
	typ, ok := keylet.TypeOf(rec.Key)
	if !ok {
		return fmt.Errorf("snapshot: unknown key space %q", rec.Key[0])
	}
	e, err := entry.New(typ)
	if err != nil {
		return err
	}
	if err := entry.Decode(rec.Data, e); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}
