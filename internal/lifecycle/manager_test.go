package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComponent struct {
	name     string
	startErr error
	started  *[]string
	stopped  *[]string
}

func (f *fakeComponent) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	*f.started = append(*f.started, f.name)
	return nil
}

func (f *fakeComponent) Stop(ctx context.Context) error {
	*f.stopped = append(*f.stopped, f.name)
	return nil
}

func (f *fakeComponent) Name() string { return f.name }

func newFake(name string, started, stopped *[]string) *fakeComponent {
	return &fakeComponent{name: name, started: started, stopped: stopped}
}

func TestManagerStartStopOrder(t *testing.T) {
	var started, stopped []string
	m := NewManager()

	store := newFake("store", &started, &stopped)
	scoring := newFake("scoring", &started, &stopped)
	server := newFake("server", &started, &stopped)

	require.NoError(t, m.Register(store))
	require.NoError(t, m.Register(scoring))
	require.NoError(t, m.Register(server, store, scoring))

	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	assert.Equal(t, []string{"store", "scoring", "server"}, started)
	assert.True(t, m.IsRunning(server))

	require.NoError(t, m.Stop(ctx))
	assert.Equal(t, []string{"server", "scoring", "store"}, stopped)
	assert.False(t, m.IsRunning(store))
}

func TestManagerStartFailureRollsBack(t *testing.T) {
	var started, stopped []string
	m := NewManager()

	store := newFake("store", &started, &stopped)
	server := newFake("server", &started, &stopped)
	server.startErr = errors.New("port in use")

	require.NoError(t, m.Register(store))
	require.NoError(t, m.Register(server, store))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server")
	assert.Equal(t, []string{"store"}, stopped)
	assert.False(t, m.IsRunning(store))
}

func TestManagerRegisterValidation(t *testing.T) {
	var started, stopped []string
	m := NewManager()

	store := newFake("store", &started, &stopped)
	other := newFake("other", &started, &stopped)

	require.NoError(t, m.Register(store))
	assert.Error(t, m.Register(nil))
	assert.Error(t, m.Register(store), "duplicate registration")
	assert.Error(t, m.Register(other, newFake("ghost", &started, &stopped)), "unknown dependency")
}
