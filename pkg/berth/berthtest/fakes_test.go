package berthtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeResourceLifecycle(t *testing.T) {
	r := NewFakeResource("redis:7.2")

	assert.Equal(t, "redis:7.2", r.ImageName())
	assert.NotEmpty(t, r.ID())
	assert.NotEmpty(t, r.Addr())
	assert.False(t, r.Running())

	ctx := context.Background()
	require.NoError(t, r.Start(ctx))
	require.NoError(t, r.Start(ctx))
	assert.True(t, r.Running())
	assert.Equal(t, 1, r.StartCount(), "repeated starts must not restart")
	assert.Equal(t, 2, r.StartAttempts())

	require.NoError(t, r.Stop(ctx))
	assert.False(t, r.Running())
	require.NoError(t, r.Start(ctx))
	assert.Equal(t, 2, r.StartCount())
}

func TestFakeResourceStartFailure(t *testing.T) {
	r := NewFakeResource("redis:7.2")
	boom := errors.New("boom")
	r.FailStartWith(boom)

	assert.ErrorIs(t, r.Start(context.Background()), boom)
	assert.False(t, r.Running())
	assert.Equal(t, 1, r.StartAttempts())
}

func TestFakeResourceAddressesAreDistinct(t *testing.T) {
	a := NewFakeResource("redis:7.2")
	b := NewFakeResource("redis:7.2")
	assert.NotEqual(t, a.Addr(), b.Addr())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestRecordingRegistry(t *testing.T) {
	reg := NewRecordingRegistry()
	reg.Add("db.addr", func(context.Context) (any, error) { return "127.0.0.1:5432", nil })
	reg.Add("db.name", func(context.Context) (any, error) { return "app", nil })

	assert.Equal(t, []string{"db.addr", "db.name"}, reg.Names())

	value, err := reg.Resolve(context.Background(), "db.addr")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5432", value)

	_, err = reg.Resolve(context.Background(), "missing")
	assert.Error(t, err)
}
