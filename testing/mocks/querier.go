package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/heritagehub/cms/database/types"
)

// MockQuerier is a testify-based mock of types.Querier for testing code that
// issues statements through the three verbs.
//
// Example usage:
//
//	q := &mocks.MockQuerier{}
//	q.ExpectGet("SELECT * FROM events WHERE id = ?", types.Record{"id": int64(1)}, int64(1))
//	q.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(types.NewResult(1), nil)
type MockQuerier struct {
	mock.Mock
}

var _ types.Querier = (*MockQuerier)(nil)

// All implements types.Querier
func (m *MockQuerier) All(ctx context.Context, query string, args ...any) ([]types.Record, error) {
	arguments := m.Called(append([]any{ctx, query}, args...)...)
	rows, _ := arguments.Get(0).([]types.Record)
	return rows, arguments.Error(1)
}

// Get implements types.Querier
func (m *MockQuerier) Get(ctx context.Context, query string, args ...any) (types.Record, error) {
	arguments := m.Called(append([]any{ctx, query}, args...)...)
	row, _ := arguments.Get(0).(types.Record)
	return row, arguments.Error(1)
}

// Run implements types.Querier
func (m *MockQuerier) Run(ctx context.Context, query string, args ...any) (types.Result, error) {
	arguments := m.Called(append([]any{ctx, query}, args...)...)
	res, _ := arguments.Get(0).(types.Result)
	return res, arguments.Error(1)
}

func expectArgs(query string, args []any) []any {
	return append([]any{mock.Anything, query}, args...)
}

// ExpectAll sets up an All call returning rows.
func (m *MockQuerier) ExpectAll(query string, rows []types.Record, args ...any) *mock.Call {
	return m.On("All", expectArgs(query, args)...).Return(rows, nil)
}

// ExpectGet sets up a Get call returning row; a nil row means absent.
func (m *MockQuerier) ExpectGet(query string, row types.Record, args ...any) *mock.Call {
	return m.On("Get", expectArgs(query, args)...).Return(row, nil)
}

// ExpectRun sets up a Run call returning res.
func (m *MockQuerier) ExpectRun(query string, res types.Result, args ...any) *mock.Call {
	return m.On("Run", expectArgs(query, args)...).Return(res, nil)
}

// MockGateway extends MockQuerier with the rest of types.Gateway.
type MockGateway struct {
	MockQuerier
}

var _ types.Gateway = (*MockGateway)(nil)

// RepairSequences implements types.SequenceRepairer
func (m *MockGateway) RepairSequences(ctx context.Context, tables []string) types.RepairReport {
	arguments := m.Called(ctx, tables)
	report, _ := arguments.Get(0).(types.RepairReport)
	return report
}

// Dialect implements types.Gateway
func (m *MockGateway) Dialect() types.Dialect {
	arguments := m.Called()
	return arguments.Get(0).(types.Dialect)
}
