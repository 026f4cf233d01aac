package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/meysamhadeli/assemble/submission/contracts"
	"github.com/zeebo/xxh3"
	"go.etcd.io/bbolt"
)

var bucketSubmissions = []byte("submissions")

// BoltStore is a local ledger of successful submissions keyed by a hash of their code.
type BoltStore struct {
	db *bbolt.DB
}

var _ contracts.ISubmissionHistory = (*BoltStore)(nil)

type entryMeta struct {
	RunID       string `json:"run_id"`
	URL         string `json:"url"`
	SubmittedAt int64  `json:"submitted_at"`
}

// NewBoltStore opens (or creates) the ledger at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSubmissions); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketSubmissions, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// CodeKey normalises surrounding whitespace so that re-running the same cell maps to the same key.
func CodeKey(code string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(strings.TrimSpace(code)))
}

func (s *BoltStore) Lookup(code string) (*contracts.HistoryEntry, bool, error) {
	key := CodeKey(code)

	var entry *contracts.HistoryEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSubmissions).Get([]byte(key))
		if data == nil {
			return nil
		}
		var meta entryMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		entry = toEntry(key, meta)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read submission history: %w", err)
	}

	return entry, entry != nil, nil
}

func (s *BoltStore) Record(code string, entry contracts.HistoryEntry) error {
	submittedAt := entry.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	data, err := json.Marshal(entryMeta{
		RunID:       entry.RunID,
		URL:         entry.URL,
		SubmittedAt: submittedAt.Unix(),
	})
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSubmissions).Put([]byte(CodeKey(code)), data)
	})
}

// List returns every recorded submission, newest first.
func (s *BoltStore) List() ([]contracts.HistoryEntry, error) {
	var entries []contracts.HistoryEntry
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSubmissions).ForEach(func(k, v []byte) error {
			var meta entryMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			entries = append(entries, *toEntry(string(k), meta))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SubmittedAt.After(entries[j].SubmittedAt)
	})
	return entries, nil
}

func toEntry(key string, meta entryMeta) *contracts.HistoryEntry {
	return &contracts.HistoryEntry{
		Key:         key,
		RunID:       meta.RunID,
		URL:         meta.URL,
		SubmittedAt: time.Unix(meta.SubmittedAt, 0),
	}
}
