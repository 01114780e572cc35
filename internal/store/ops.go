package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/oppuss/internal/logging"
	"go.uber.org/zap"
)

// ErrPending is returned for changes to an entity whose creation has not
// been confirmed yet.
var ErrPending = errors.New("entity is still being created")

type Option func(*base)

func WithLogger(log *zap.Logger) Option {
	return func(b *base) { b.log = logging.OrNop(log) }
}

// WithObserver reports every mutation transition to fn.
func WithObserver(fn Observer) Option {
	return func(b *base) { b.observer = fn }
}

// base carries what every store shares.
type base struct {
	name     string
	user     UserSource
	log      *zap.Logger
	observer Observer
}

func newBase(name string, user UserSource, opts []Option) base {
	b := base{name: name, user: user, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&b)
	}
	b.log = b.log.With(zap.String("store", name))
	return b
}

// currentUser fails with ErrNoCurrentUser when nobody is signed in.
func (b *base) currentUser() (string, error) {
	if b.user == nil {
		return "", ErrNoCurrentUser
	}
	userID, ok := b.user.CurrentUserID()
	if !ok {
		return "", ErrNoCurrentUser
	}
	return userID, nil
}

// load replaces the collection with the result of list. Without a user the
// collection is emptied and no error is returned; a failed list also empties
// it, and the error is returned.
func load[T any](ctx context.Context, c *collection[T], b *base, list func(ctx context.Context, userID string) ([]T, error)) error {
	userID, err := b.currentUser()
	if err != nil {
		c.replaceAll(nil)
		return nil
	}

	items, err := list(ctx, userID)
	if err != nil {
		b.log.Warn("load failed, clearing local state", zap.Error(err))
		c.replaceAll(nil)
		return fmt.Errorf("failed to load %s: %w", b.name, err)
	}

	c.replaceAll(items)
	return nil
}

// addOptimistic publishes pending at index, then swaps it for whatever create
// returns. pending is removed again if create fails.
func addOptimistic[T any](c *collection[T], b *base, index int, pending T, create func() (*T, error)) (*T, error) {
	pendingID := c.id(pending)
	c.insert(index, pending)
	m := newMutation(b.name, "add", b.observer, func() { c.remove(pendingID) })

	created, err := create()
	if err != nil {
		b.log.Warn("add rejected, rolling back", zap.Error(err))
		m.Rollback()
		return nil, err
	}

	c.replace(pendingID, *created)
	m.Confirm()
	return created, nil
}

// updateOptimistic publishes apply's result for id, then replaces it with
// whatever update returns. The prior element is restored if update fails.
func updateOptimistic[T any](c *collection[T], b *base, op, id string, apply func(*T), update func() (*T, error)) (*T, error) {
	if IsTemporaryID(id) {
		return nil, ErrPending
	}
	prior, ok := c.Get(id)
	if !ok {
		return nil, ErrNotLoaded
	}

	next := c.clone(prior)
	apply(&next)
	c.replace(id, next)
	m := newMutation(b.name, op, b.observer, func() { c.replace(id, prior) })

	updated, err := update()
	if err != nil {
		b.log.Warn("update rejected, rolling back", zap.String("op", op), zap.String("id", id), zap.Error(err))
		m.Rollback()
		return nil, err
	}

	c.replace(id, *updated)
	m.Confirm()
	return updated, nil
}

// deleteOptimistic removes id, then calls del. The element goes back to its
// old position if del fails.
func deleteOptimistic[T any](c *collection[T], b *base, id string, del func() error) error {
	if IsTemporaryID(id) {
		return ErrPending
	}
	prior, index, ok := c.remove(id)
	if !ok {
		return ErrNotLoaded
	}
	m := newMutation(b.name, "delete", b.observer, func() { c.insert(index, prior) })

	if err := del(); err != nil {
		b.log.Warn("delete rejected, rolling back", zap.String("id", id), zap.Error(err))
		m.Rollback()
		return err
	}

	m.Confirm()
	return nil
}
