package kvstore

import (
	"context"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// BadgerStore keeps keys in an embedded badger database. Expiry is handled by
// badger's entry TTL, so expired keys read as missing.
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)

func OpenBadgerStore(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, errors.Wrapf(err, "[OpenBadgerStore] %s", path)
	}
	return NewBadgerStore(db), nil
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (b *BadgerStore) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), []byte(value)).WithTTL(ttl))
	})
}

func (b *BadgerStore) Get(_ context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "[BadgerStore.Get] %s", key)
	}
	return value, true, nil
}

func (b *BadgerStore) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Incr keeps the expiry set when the counter was created.
func (b *BadgerStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	var n int64
	err := b.db.Update(func(txn *badger.Txn) error {
		entryTTL := ttl
		item, err := txn.Get([]byte(key))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				n, err = strconv.ParseInt(string(val), 10, 64)
				return err
			}); err != nil {
				return err
			}
			if exp := item.ExpiresAt(); exp > 0 {
				entryTTL = time.Until(time.Unix(int64(exp), 0))
				if entryTTL <= 0 {
					n, entryTTL = 0, ttl
				}
			}
		}
		n++
		e := badger.NewEntry([]byte(key), []byte(strconv.FormatInt(n, 10)))
		if entryTTL > 0 {
			e = e.WithTTL(entryTTL)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "[BadgerStore.Incr] %s", key)
	}
	return n, nil
}

func (b *BadgerStore) Ping(context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}
