package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
)

// compressThreshold is the minimum value size before zstd kicks in.
// Smaller blobs cost more in header than they save.
const compressThreshold = 1024

// Local is an embedded project store backed by BadgerDB, used when the
// gateway runs single-node without the remote store service.
type Local struct {
	db      *badger.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// record is the stored value envelope.
type record struct {
	MimeType   string `json:"mime_type"`
	Compressed bool   `json:"compressed"`
	Content    []byte `json:"content"`
}

func NewLocal(db *badger.DB) (*Local, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}

	return &Local{db: db, encoder: encoder, decoder: decoder}, nil
}

func (l *Local) makeKey(project, key string) []byte {
	return []byte(fmt.Sprintf("file:%s:%s", project, key))
}

func (l *Local) Get(_ context.Context, project, key string) ([]byte, string, error) {
	var rec record
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(l.makeKey(project, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", key, err)
	}

	content := rec.Content
	if rec.Compressed {
		content, err = l.decoder.DecodeAll(rec.Content, nil)
		if err != nil {
			return nil, "", fmt.Errorf("decompressing %s: %w", key, err)
		}
	}
	return content, rec.MimeType, nil
}

func (l *Local) List(_ context.Context, project, prefix string) ([]KeyInfo, error) {
	keyPrefix := l.makeKey(project, prefix)
	strip := fmt.Sprintf("file:%s:", project)

	var result []KeyInfo
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			item := it.Item()
			var rec record
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			result = append(result, KeyInfo{
				Key:      strings.TrimPrefix(string(item.Key()), strip),
				MimeType: rec.MimeType,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}
	return result, nil
}

func (l *Local) Store(_ context.Context, project, key, mimeType string, content []byte) error {
	rec := record{MimeType: mimeType, Content: content}
	if len(content) >= compressThreshold {
		rec.Content = l.encoder.EncodeAll(content, nil)
		rec.Compressed = true
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(l.makeKey(project, key), data)
	})
}

func (l *Local) Delete(_ context.Context, project, key string) error {
	k := l.makeKey(project, key)
	err := l.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(k); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	return err
}

// Close releases the compression codecs. The badger handle is owned by the
// caller.
func (l *Local) Close() {
	l.encoder.Close()
	l.decoder.Close()
}
