package store

import (
	"encoding/binary"
	"errors"

	badger "github.com/dgraph-io/badger/v4"
)

// balancePrefix namespaces balance keys so the database can hold other
// buckets later without a migration.
const balancePrefix = "balance/"

// BadgerStore persists balances in an embedded Badger database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger-backed balance store at path. An
// empty path opens an in-memory database, which is useful in tests.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Balance returns the balance for an account, 0 if the account is unknown.
func (s *BadgerStore) Balance(account string) (uint64, error) {
	var balance uint64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(balanceKey(account))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return errors.New("store: corrupt balance value")
			}
			balance = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// SetBalance replaces the balance for an account.
func (s *BadgerStore) SetBalance(account string, balance uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], balance)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(balanceKey(account), buf[:])
	})
}

func balanceKey(account string) []byte {
	return []byte(balancePrefix + account)
}
