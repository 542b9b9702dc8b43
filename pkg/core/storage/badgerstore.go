package storage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// BadgerStore is the durable KV backend. Values are msgpack-encoded
// through badgerhold's pluggable codec.
type BadgerStore struct {
	store  *badgerhold.Store
	logger zerolog.Logger
}

// NewBadgerStore opens (or creates) a badger database at path.
func NewBadgerStore(path string, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	opts.Encoder = func(value interface{}) ([]byte, error) {
		return msgpack.Marshal(value)
	}
	opts.Decoder = func(data []byte, value interface{}) error {
		return msgpack.Unmarshal(data, value)
	}

	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	logger.Debug().Str("path", path).Msg("badger store opened")
	return &BadgerStore{store: store, logger: logger}, nil
}

// entry wraps arbitrary values so every key shares one badgerhold type.
type entry struct {
	Key     string `badgerhold:"key"`
	Payload []byte
}

func (s *BadgerStore) Set(key string, value interface{}) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %s: %w", key, err)
	}
	if err := s.store.Upsert(key, &entry{Key: key, Payload: payload}); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) Get(key string, out interface{}) (bool, error) {
	var e entry
	err := s.store.Get(key, &e)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := msgpack.Unmarshal(e.Payload, out); err != nil {
		return false, fmt.Errorf("decode value for %s: %w", key, err)
	}
	return true, nil
}

func (s *BadgerStore) Delete(key string) error {
	err := s.store.Delete(key, entry{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.store.Close()
}
