// Package store keeps signed orders in a pebble database, keyed by order
// hash, with a secondary index ordered by sort price.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/kaifufi/zeroex-order-sdk-go/chain"
)

// ErrNotFound is returned when no order is stored under a hash.
var ErrNotFound = errors.New("order not found")

// Keys:
//
//	o:<hash>              → record
//	p:<sortKey>:<hash>    → hash
const (
	prefixOrder = "o:"
	prefixPrice = "p:"
)

func orderKey(hash common.Hash) []byte {
	return []byte(prefixOrder + hash.Hex())
}

func priceKey(sortKey string, hash common.Hash) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", prefixPrice, sortKey, hash.Hex()))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}

// record is the stored form of an order.
type record struct {
	Order          chain.StorageOrder `json:"order"`
	SortSide       string             `json:"sortSide"`
	SortKey        string             `json:"sortKey"`
	CreatedAtMsecs int64              `json:"createdAtMsecs"`
}

// OrderStore is a durable order journal. It is safe for concurrent use to
// the extent pebble is; Put and Delete of the same hash must not race.
type OrderStore struct {
	db     *pebble.DB
	logger *zap.Logger
}

// Open opens or creates a store at path. logger may be nil.
func Open(path string, logger *zap.Logger) (*OrderStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open order store at %s: %w", path, err)
	}
	return &OrderStore{db: db, logger: logger.Named("store")}, nil
}

func (s *OrderStore) Close() error { return s.db.Close() }

// Put stores order under its hash, replacing any previous version.
func (s *OrderStore) Put(order *chain.SignedOrder) error {
	hash := order.Hash()
	rec := record{
		Order:          order.ToStorage(chain.WireOptions{IncludeHash: true, IncludeSignature: true}),
		SortSide:       order.SortSide().String(),
		SortKey:        order.SortKey(),
		CreatedAtMsecs: order.CreatedAt().UnixMilli(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal order %s: %w", hash.Hex(), err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	old, err := s.getRecord(hash)
	switch {
	case err == nil:
		if err := batch.Delete(priceKey(old.SortKey, hash), nil); err != nil {
			return err
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	if err := batch.Set(orderKey(hash), data, nil); err != nil {
		return err
	}
	if err := batch.Set(priceKey(rec.SortKey, hash), hash.Bytes(), nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to save order %s: %w", hash.Hex(), err)
	}

	s.logger.Debug("order_saved",
		zap.String("hash", hash.Hex()),
		zap.String("state", order.State().String()),
		zap.String("sortKey", rec.SortKey),
	)
	return nil
}

// Get loads the order stored under hash.
func (s *OrderStore) Get(hash common.Hash) (*chain.SignedOrder, error) {
	rec, err := s.getRecord(hash)
	if err != nil {
		return nil, err
	}
	return rec.order()
}

// Delete removes the order stored under hash.
func (s *OrderStore) Delete(hash common.Hash) error {
	rec, err := s.getRecord(hash)
	if err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(orderKey(hash), nil); err != nil {
		return err
	}
	if err := batch.Delete(priceKey(rec.SortKey, hash), nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", hash.Hex(), err)
	}

	s.logger.Debug("order_deleted", zap.String("hash", hash.Hex()))
	return nil
}

// Sorted returns up to limit orders in ascending sort price order. A limit
// of zero or less returns every order.
func (s *OrderStore) Sorted(limit int) ([]*chain.SignedOrder, error) {
	prefix := []byte(prefixPrice)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var orders []*chain.SignedOrder
	for iter.First(); iter.Valid(); iter.Next() {
		if limit > 0 && len(orders) >= limit {
			break
		}
		rec, err := s.getRecord(common.BytesToHash(iter.Value()))
		if err != nil {
			return nil, err
		}
		order, err := rec.order()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderStore) getRecord(hash common.Hash) (*record, error) {
	data, closer, err := s.db.Get(orderKey(hash))
	if err == pebble.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash.Hex())
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", hash.Hex(), err)
	}
	return &rec, nil
}

func (r *record) order() (*chain.SignedOrder, error) {
	order, err := chain.FromStorage(r.Order, chain.FromWireOptions{
		ExpectSignature: r.Order.Signature != "",
		CreatedAt:       time.UnixMilli(r.CreatedAtMsecs),
	})
	if err != nil {
		return nil, err
	}
	side, err := chain.ParseSortSide(r.SortSide)
	if err != nil {
		return nil, err
	}
	if side == chain.SortByAsk {
		order.SetAskAsSortPrice()
	}
	return order, nil
}
