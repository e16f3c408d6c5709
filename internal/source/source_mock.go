package source

import (
	"context"

	"github.com/huangsam/repopulse/internal/contract"
	"github.com/huangsam/repopulse/schema"
	"github.com/stretchr/testify/mock"
)

// MockEventSource is a mock implementation of EventSource for testing.
type MockEventSource struct {
	mock.Mock
}

var _ contract.EventSource = &MockEventSource{} // Compile-time check

// Name implements the EventSource interface.
func (m *MockEventSource) Name() string {
	args := m.Called()
	return args.String(0)
}

// Fetch implements the EventSource interface.
func (m *MockEventSource) Fetch(ctx context.Context, repo string) (map[schema.QueryName]schema.RawTable, error) {
	args := m.Called(ctx, repo)
	tables, _ := args.Get(0).(map[schema.QueryName]schema.RawTable)
	return tables, args.Error(1)
}
