// Package uow coordinates a mutation with the side effects that must
// run only after the mutation has fully succeeded: cache invalidation,
// change notifications, audit write-through.
package uow

import (
	"context"
)

// AfterCommit is a function that runs after the mutation succeeds.
type AfterCommit func(ctx context.Context)

type UoW struct{}

func New() *UoW {
	return &UoW{}
}

// Do runs fn; if it returns nil, every registered after-commit hook
// runs in registration order. A failed mutation runs no hooks, so
// observers never see effects of state that was not reached.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := fn(ctx, func(h AfterCommit) {
		hooks = append(hooks, h)
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
