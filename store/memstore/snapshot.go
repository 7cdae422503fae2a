package memstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/setq/blobstore"
)

// CompressionType defines the compression algorithm used for snapshots.
type CompressionType uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone CompressionType = 0
	// CompressionLZ4 compresses with LZ4 (fast, lighter ratio).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD compresses with zstd (better ratio).
	CompressionZSTD CompressionType = 2
)

const (
	snapshotMagic   = "SQMS"
	snapshotVersion = uint16(1)
)

// snapshotPayload is the gob-encoded dump body. Sets are materialized to
// member strings; the dictionary is rebuilt on restore.
type snapshotPayload struct {
	Sets    map[string][]string
	Strings map[string]string
}

// SnapshotOption configures a snapshot write.
type SnapshotOption func(*snapshotOptions)

type snapshotOptions struct {
	compression CompressionType
}

// WithCompression selects the snapshot compression algorithm.
// The default is CompressionZSTD.
func WithCompression(c CompressionType) SnapshotOption {
	return func(o *snapshotOptions) { o.compression = c }
}

// Snapshot writes a point-in-time dump of the whole store.
//
// Layout: 4-byte magic, format version (uint16 LE), compression byte, then
// the gob-encoded payload wrapped in the selected compression stream. The
// store stays readable while the dump is taken.
func (s *Store) Snapshot(w io.Writer, opts ...SnapshotOption) error {
	o := snapshotOptions{compression: CompressionZSTD}
	for _, opt := range opts {
		opt(&o)
	}

	payload := s.dump()

	hdr := make([]byte, 7)
	copy(hdr, snapshotMagic)
	binary.LittleEndian.PutUint16(hdr[4:6], snapshotVersion)
	hdr[6] = byte(o.compression)
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("snapshot: writing header: %w", err)
	}

	body, closeBody, err := compressedWriter(w, o.compression)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(body).Encode(payload); err != nil {
		_ = closeBody()
		return fmt.Errorf("snapshot: encoding payload: %w", err)
	}
	return closeBody()
}

func (s *Store) dump() snapshotPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload := snapshotPayload{
		Sets:    make(map[string][]string, len(s.sets)),
		Strings: make(map[string]string, len(s.strings)),
	}
	for key := range s.sets {
		payload.Sets[key] = s.membersLocked(key)
	}
	for key, value := range s.strings {
		payload.Strings[key] = value
	}
	return payload
}

// Restore replaces the whole store content with a previously written
// snapshot.
func (s *Store) Restore(r io.Reader) error {
	hdr := make([]byte, 7)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return fmt.Errorf("snapshot: reading header: %w", err)
	}
	if string(hdr[:4]) != snapshotMagic {
		return fmt.Errorf("snapshot: bad magic %q", hdr[:4])
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != snapshotVersion {
		return fmt.Errorf("snapshot: unsupported format version %d", v)
	}

	body, err := compressedReader(r, CompressionType(hdr[6]))
	if err != nil {
		return err
	}

	var payload snapshotPayload
	if err := gob.NewDecoder(body).Decode(&payload); err != nil {
		return fmt.Errorf("snapshot: decoding payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dict = newDictionary()
	s.sets = make(map[string]*roaring.Bitmap, len(payload.Sets))
	s.strings = payload.Strings
	if s.strings == nil {
		s.strings = make(map[string]string)
	}
	for key, members := range payload.Sets {
		bm := roaring.New()
		for _, m := range members {
			bm.Add(s.dict.intern(m))
		}
		s.sets[key] = bm
	}
	return nil
}

// SaveTo writes a snapshot into a blob store under the given name.
func (s *Store) SaveTo(ctx context.Context, bs blobstore.BlobStore, name string, opts ...SnapshotOption) error {
	var buf bytes.Buffer
	if err := s.Snapshot(&buf, opts...); err != nil {
		return err
	}
	return bs.Put(ctx, name, &buf)
}

// LoadFrom restores a snapshot previously written with SaveTo.
func (s *Store) LoadFrom(ctx context.Context, bs blobstore.BlobStore, name string) error {
	rc, err := bs.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	return s.Restore(rc)
}

func compressedWriter(w io.Writer, c CompressionType) (io.Writer, func() error, error) {
	switch c {
	case CompressionNone:
		return w, func() error { return nil }, nil
	case CompressionLZ4:
		lw := lz4.NewWriter(w)
		return lw, lw.Close, nil
	case CompressionZSTD:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot: creating zstd writer: %w", err)
		}
		return zw, zw.Close, nil
	default:
		return nil, nil, fmt.Errorf("snapshot: unknown compression type %d", c)
	}
}

func compressedReader(r io.Reader, c CompressionType) (io.Reader, error) {
	switch c {
	case CompressionNone:
		return r, nil
	case CompressionLZ4:
		return lz4.NewReader(r), nil
	case CompressionZSTD:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("snapshot: creating zstd reader: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("snapshot: unknown compression type %d", c)
	}
}
