package usecase_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	cardDomain "github.com/allisson/cardledger/internal/card/domain"
)

type txKey struct{}

// memTx buffers writes until commit.
type memTx struct {
	writes map[int64]cardDomain.Card
}

// memStore is an in-memory CardRepository and TxManager. Writes made inside
// WithTx become visible to other callers only when fn succeeds.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	cards    map[int64]cardDomain.Card
	failOn   map[int64]error
	commits  int
	rollback int
}

func newMemStore() *memStore {
	return &memStore{cards: map[int64]cardDomain.Card{}, failOn: map[int64]error{}}
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*memTx); ok {
		return fn(ctx)
	}

	tx := &memTx{writes: map[int64]cardDomain.Card{}}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		s.mu.Lock()
		s.rollback++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range tx.writes {
		s.cards[id] = c
	}
	s.commits++
	return nil
}

func (s *memStore) seed(c cardDomain.Card) *cardDomain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.cards[c.ID] = c
	return &c
}

func (s *memStore) snapshot(id int64) cardDomain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cards[id]
}

func (s *memStore) Create(ctx context.Context, c *cardDomain.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.cards[c.ID] = *c
	return nil
}

func (s *memStore) Update(ctx context.Context, c *cardDomain.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOn[c.ID]; err != nil {
		return err
	}
	if _, ok := s.cards[c.ID]; !ok {
		return cardDomain.ErrCardNotFound
	}
	if tx, ok := ctx.Value(txKey{}).(*memTx); ok {
		tx.writes[c.ID] = *c
		return nil
	}
	s.cards[c.ID] = *c
	return nil
}

func (s *memStore) Get(ctx context.Context, cardID int64) (*cardDomain.Card, error) {
	if tx, ok := ctx.Value(txKey{}).(*memTx); ok {
		if c, ok := tx.writes[cardID]; ok {
			return &c, nil
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[cardID]
	if !ok {
		return nil, cardDomain.ErrCardNotFound
	}
	return &c, nil
}

func (s *memStore) GetForUpdate(ctx context.Context, cardID int64) (*cardDomain.Card, error) {
	if _, ok := ctx.Value(txKey{}).(*memTx); !ok {
		return nil, errors.New("GetForUpdate outside transaction")
	}
	return s.Get(ctx, cardID)
}

func (s *memStore) Delete(ctx context.Context, cardID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[cardID]; !ok {
		return cardDomain.ErrCardNotFound
	}
	delete(s.cards, cardID)
	return nil
}

func (s *memStore) sorted(keep func(c cardDomain.Card) bool) []*cardDomain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*cardDomain.Card, 0, len(s.cards))
	for _, c := range s.cards {
		if keep(c) {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) ListAll(ctx context.Context) ([]*cardDomain.Card, error) {
	out := s.sorted(func(cardDomain.Card) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memStore) ListByOwner(ctx context.Context, ownerID int64) ([]*cardDomain.Card, error) {
	return s.sorted(func(c cardDomain.Card) bool { return c.OwnedBy(ownerID) }), nil
}

func paginate(all []*cardDomain.Card, page, size int) *cardDomain.Page {
	result := &cardDomain.Page{Page: page, Size: size, TotalItems: len(all), Cards: []*cardDomain.Card{}}
	start := page * size
	if start >= len(all) {
		return result
	}
	end := min(start+size, len(all))
	result.Cards = all[start:end]
	return result
}

func (s *memStore) ListByOwnerPaged(ctx context.Context, ownerID int64, page, size int) (*cardDomain.Page, error) {
	return paginate(s.sorted(func(c cardDomain.Card) bool { return c.OwnedBy(ownerID) }), page, size), nil
}

func (s *memStore) ListByOwnerAndNumberContaining(
	ctx context.Context,
	ownerID int64,
	substring string,
	page, size int,
) (*cardDomain.Page, error) {
	all := s.sorted(func(c cardDomain.Card) bool {
		return c.OwnedBy(ownerID) && strings.Contains(c.Number, substring)
	})
	return paginate(all, page, size), nil
}

func (s *memStore) ReencryptBatch(
	ctx context.Context,
	afterID int64,
	limit int,
) (*cardDomain.RotationBatch, error) {
	all := s.sorted(func(c cardDomain.Card) bool { return c.ID > afterID })
	if len(all) > limit {
		all = all[:limit]
	}
	batch := &cardDomain.RotationBatch{Scanned: len(all), LastID: afterID}
	for _, c := range all {
		batch.LastID = c.ID
		batch.Rotated++
	}
	return batch, nil
}
