package port_persistence

import "context"

// UnitOfWork scopes store writes in one transaction: committed when fn returns
// nil, rolled back otherwise. Repositories called with the ctx passed to fn
// join the transaction when they share its backend.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
