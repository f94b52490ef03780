package impl_memory

import "context"

// UnitOfWork runs fn directly. Memory stores apply each write immediately, so
// there is nothing to commit or roll back.
type UnitOfWork struct{}

func (UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
