package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	name     string
	startErr error
	events   *[]string
}

func (f *fakeServer) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	*f.events = append(*f.events, "start:"+f.name)
	return nil
}

func (f *fakeServer) Stop(context.Context) error {
	*f.events = append(*f.events, "stop:"+f.name)
	return nil
}

func (f *fakeServer) Name() string { return f.name }

func TestManagerStartStopOrder(t *testing.T) {
	var events []string
	m := NewManager(time.Second,
		&fakeServer{name: "a", events: &events},
		&fakeServer{name: "b", events: &events},
	)

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))
	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, events)

	// 重复 Stop 为空操作
	require.NoError(t, m.Stop(context.Background()))
	assert.Len(t, events, 4)
}

func TestManagerStartFailureRollsBack(t *testing.T) {
	var events []string
	m := NewManager(time.Second, &fakeServer{name: "a", events: &events})
	m.AddServer(&fakeServer{name: "b", events: &events, startErr: errors.New("bind failed")})

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bind failed")
	assert.Equal(t, []string{"start:a", "stop:a"}, events)
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	var events []string
	m := NewManager(time.Second, &fakeServer{name: "a", events: &events})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.started
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{"start:a", "stop:a"}, events)
}
