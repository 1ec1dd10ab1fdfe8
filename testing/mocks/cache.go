package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/heritagehub/cms/cache"
)

// MockCache is a testify-based mock of cache.Cache, used to inject cache
// failures into code that treats the cache as best effort.
//
// Example usage:
//
//	c := &mocks.MockCache{}
//	c.On("Get", mock.Anything, "settings:key:site_title").Return(nil, cache.ErrNotFound)
//	c.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
type MockCache struct {
	mock.Mock
}

var _ cache.Cache = (*MockCache)(nil)

// Get implements cache.Cache
func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// Set implements cache.Cache
func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

// Delete implements cache.Cache
func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := []any{ctx}
	for _, k := range keys {
		args = append(args, k)
	}
	return m.Called(args...).Error(0)
}

// Health implements cache.Cache
func (m *MockCache) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Close implements cache.Cache
func (m *MockCache) Close() error {
	return m.Called().Error(0)
}
