package repository

import "context"

// Transactor runs fn inside a single store transaction. Repositories called
// with the ctx passed to fn take part in that transaction; fn's error rolls
// everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
