package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitMachineTransitions(t *testing.T) {
	var m SubmitMachine
	assert.Equal(t, StateReady, m.State())

	require.NoError(t, m.Begin())
	assert.Equal(t, StateAwaitingResponse, m.State())
	assert.ErrorIs(t, m.Begin(), ErrBusy)

	m.End()
	assert.Equal(t, StateReady, m.State())
	assert.NoError(t, m.Begin())
}

func TestSubmitMachineSingleWinner(t *testing.T) {
	var m SubmitMachine
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Begin() == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "awaiting_response", StateAwaitingResponse.String())
	assert.Equal(t, "unknown", State(7).String())
}
