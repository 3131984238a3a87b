package cmd

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Module is a long-running part of the program. Start must not block: work
// that outlives it goes into the group and ends when ctx is cancelled.
type Module interface {
	Start(context.Context, *errgroup.Group) error
}
