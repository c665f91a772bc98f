// Package datastoretest provides datastore.Client doubles for tests.
package datastoretest

import (
	"context"
	"sync"

	"github.com/traveloop/traveloop/internal/datastore"
)

// Failing answers every call with Err and counts the calls.
type Failing struct {
	Err error

	mu    sync.Mutex
	calls int
}

// Calls returns the number of calls so far.
func (f *Failing) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func (f *Failing) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	return f.Err
}

// Select implements datastore.Client.
func (f *Failing) Select(context.Context, datastore.Query, any) error { return f.fail() }

// Get implements datastore.Client.
func (f *Failing) Get(context.Context, datastore.Query, any) error { return f.fail() }

// Insert implements datastore.Client.
func (f *Failing) Insert(context.Context, string, any) error { return f.fail() }

// Update implements datastore.Client.
func (f *Failing) Update(context.Context, datastore.Query, map[string]any, any) error { return f.fail() }

// WithAccessToken implements datastore.Client.
func (f *Failing) WithAccessToken(string) datastore.Client { return f }

// Switch delegates to Client until Fail is set.
type Switch struct {
	datastore.Client

	mu   sync.Mutex
	fail error
}

// SetFail makes later calls return err, nil restores delegation.
func (s *Switch) SetFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fail = err
}

func (s *Switch) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fail
}

// Select implements datastore.Client.
func (s *Switch) Select(ctx context.Context, q datastore.Query, out any) error {
	if err := s.err(); err != nil {
		return err
	}

	return s.Client.Select(ctx, q, out) //nolint:wrapcheck
}

// Get implements datastore.Client.
func (s *Switch) Get(ctx context.Context, q datastore.Query, out any) error {
	if err := s.err(); err != nil {
		return err
	}

	return s.Client.Get(ctx, q, out) //nolint:wrapcheck
}

// Insert implements datastore.Client.
func (s *Switch) Insert(ctx context.Context, table string, record any) error {
	if err := s.err(); err != nil {
		return err
	}

	return s.Client.Insert(ctx, table, record) //nolint:wrapcheck
}

// Update implements datastore.Client.
func (s *Switch) Update(ctx context.Context, q datastore.Query, values map[string]any, out any) error {
	if err := s.err(); err != nil {
		return err
	}

	return s.Client.Update(ctx, q, values, out) //nolint:wrapcheck
}

// WithAccessToken implements datastore.Client.
func (s *Switch) WithAccessToken(string) datastore.Client { return s }
