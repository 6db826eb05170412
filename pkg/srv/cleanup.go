package srv

import (
	"context"
	"errors"
)

// cleanupService releases resources at shutdown and does nothing at start.
type cleanupService struct {
	fns []func() error
}

func (c *cleanupService) Start(context.Context) error {
	return nil
}

// Shutdown runs every function in reverse order, even after failures, and
// joins their errors.
func (c *cleanupService) Shutdown(context.Context) error {
	var errs []error
	for i := len(c.fns) - 1; i >= 0; i-- {
		if c.fns[i] == nil {
			continue
		}
		if err := c.fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewCleanup wraps closers so they take part in the shutdown order. Place
// it first in the service list to close last.
func NewCleanup(fns ...func() error) Service {
	return &cleanupService{fns: fns}
}
