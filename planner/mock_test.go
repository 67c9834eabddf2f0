package planner

import (
	"context"

	"github.com/pevans/weeklymeals/discovery"
	"github.com/pevans/weeklymeals/history"
	"github.com/pevans/weeklymeals/ledger"
	"github.com/pevans/weeklymeals/mailer"
	"github.com/pevans/weeklymeals/sources"
	"github.com/stretchr/testify/mock"
)

// --- Sender Mock ---

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// --- Recorder Mock ---

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordRun(ctx context.Context, run history.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// --- Acquirer Fake ---

// fakeAcquirer runs fill against the ledger and counts invocations.
type fakeAcquirer struct {
	calls    int
	registry sources.Registry
	fill     func(l *ledger.Ledger)
	err      error
}

func (f *fakeAcquirer) Acquire(_ context.Context, registry sources.Registry, l *ledger.Ledger) (*discovery.Report, error) {
	f.calls++
	f.registry = registry
	if f.fill != nil {
		f.fill(l)
	}
	return &discovery.Report{NewMains: len(l.UnusedMain), NewSides: len(l.UnusedSide)}, f.err
}
