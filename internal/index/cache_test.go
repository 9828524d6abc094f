package index

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (l *countingLoader) load(_ context.Context, sdkID string) (*Index, error) {
	n := l.calls.Add(1)
	if l.fail.Load() {
		return nil, errors.New("boom")
	}
	return &Index{SDK: sdkID, paths: []string{string(rune('a' + n - 1))}}, nil
}

func TestCache_GetBuildsOnce(t *testing.T) {
	l := &countingLoader{}
	c := NewCache(l.load, nil)

	var wg sync.WaitGroup
	results := make([]*Index, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ix, err := c.Get(context.Background(), "demo")
			assert.NoError(t, err)
			results[i] = ix
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, l.calls.Load())
	for _, ix := range results {
		assert.Same(t, results[0], ix)
	}
}

func TestCache_InvalidateAndRefresh(t *testing.T) {
	l := &countingLoader{}
	c := NewCache(l.load, nil)
	ctx := context.Background()

	first, err := c.Get(ctx, "demo")
	require.NoError(t, err)
	assert.Same(t, first, c.Peek("demo"))

	c.Invalidate("demo")
	assert.Nil(t, c.Peek("demo"))

	second, err := c.Get(ctx, "demo")
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	third, err := c.Refresh(ctx, "demo")
	require.NoError(t, err)
	assert.Same(t, third, c.Peek("demo"))
	assert.EqualValues(t, 3, l.calls.Load())
}

func TestCache_FailureNotCached(t *testing.T) {
	l := &countingLoader{}
	c := NewCache(l.load, nil)
	ctx := context.Background()

	good, err := c.Get(ctx, "other")
	require.NoError(t, err)

	l.fail.Store(true)
	_, err = c.Get(ctx, "demo")
	require.Error(t, err)
	_, err = c.Refresh(ctx, "other")
	require.Error(t, err)
	assert.Same(t, good, c.Peek("other"), "failed refresh keeps the previous index")

	l.fail.Store(false)
	ix, err := c.Get(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", ix.SDK)
}

func TestCache_WarmSkipsMissingStorage(t *testing.T) {
	c := NewCache(func(_ context.Context, id string) (*Index, error) {
		switch id {
		case "missing":
			return nil, ErrStorageMissing
		case "broken":
			return nil, errors.New("disk on fire")
		}
		return &Index{SDK: id}, nil
	}, nil)

	err := c.Warm(context.Background(), []string{"ok", "missing", "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.NotContains(t, err.Error(), "missing")
	assert.NotNil(t, c.Peek("ok"))
}
