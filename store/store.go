package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const keySeparator = "/"

// Store is the address book of deployed contracts, keyed by chain and contract name.
type Store struct {
	db *leveldb.DB
}

func NewStore(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewMemStore keeps the address book in memory only.
func NewMemStore() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func entryKey(chain, name string) []byte {
	return []byte(chain + keySeparator + name)
}

// GetAddress returns "" when nothing is recorded for the contract.
func (s *Store) GetAddress(chain, name string) (string, error) {
	value, err := s.db.Get(entryKey(chain, name), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s/%s err: %w", chain, name, err)
	}
	return string(value), nil
}

func (s *Store) PutAddress(chain, name, address string) error {
	return s.db.Put(entryKey(chain, name), []byte(address), nil)
}

func (s *Store) Delete(chain, name string) error {
	return s.db.Delete(entryKey(chain, name), nil)
}

// Addresses lists every contract recorded for chain.
func (s *Store) Addresses(chain string) (map[string]string, error) {
	prefix := []byte(chain + keySeparator)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	entries := make(map[string]string)
	for iter.Next() {
		name := strings.TrimPrefix(string(iter.Key()), string(prefix))
		entries[name] = string(iter.Value())
	}
	return entries, iter.Error()
}

func (s *Store) Close() error {
	return s.db.Close()
}
