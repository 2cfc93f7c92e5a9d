package tan

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperion-go/hyperion/internal/wire"
)

func TestNextAutoIsMonotonic(t *testing.T) {
	r := New()
	assert.Equal(t, 1, r.NextAuto())
	assert.Equal(t, 2, r.NextAuto())
	assert.Equal(t, 3, r.NextAuto())
}

func TestResetSequenceRestartsCounter(t *testing.T) {
	r := New()
	r.NextAuto()
	r.NextAuto()
	r.ResetSequence()
	assert.Equal(t, 1, r.NextAuto())
}

func TestReserveRejectsDuplicateTan(t *testing.T) {
	r := New()
	require.NoError(t, r.Reserve(100, "clear"))
	err := r.Reserve(100, "clear")
	assert.ErrorIs(t, err, ErrTanNotAvailable)
}

func TestParkReceivesMatchingDeliver(t *testing.T) {
	r := New()
	require.NoError(t, r.Reserve(1, "clear"))

	reply := &wire.Message{Command: "clear", Tan: 1}
	go func() {
		delivered := r.Deliver(reply)
		assert.True(t, delivered)
	}()

	got := r.Park(1, time.Now().Add(time.Second))
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Tan)
}

func TestDeliverIgnoresMismatchedCommand(t *testing.T) {
	r := New()
	require.NoError(t, r.Reserve(1, "clear"))

	delivered := r.Deliver(&wire.Message{Command: "color", Tan: 1})
	assert.False(t, delivered)
}

func TestDeliverIgnoresZeroTan(t *testing.T) {
	r := New()
	delivered := r.Deliver(&wire.Message{Command: "components-update", Tan: 0})
	assert.False(t, delivered)
}

func TestParkTimesOutToNil(t *testing.T) {
	r := New()
	require.NoError(t, r.Reserve(1, "clear"))

	got := r.Park(1, time.Now().Add(20*time.Millisecond))
	assert.Nil(t, got)
}

func TestParkUnregisteredTanReturnsNil(t *testing.T) {
	r := New()
	got := r.Park(999, time.Now().Add(20*time.Millisecond))
	assert.Nil(t, got)
}

func TestDrainAllCompletesParkedCallersWithNil(t *testing.T) {
	r := New()
	require.NoError(t, r.Reserve(1, "clear"))
	require.NoError(t, r.Reserve(2, "color"))

	var wg sync.WaitGroup
	results := make([]*wire.Message, 2)
	wg.Add(2)
	go func() { defer wg.Done(); results[0] = r.Park(1, time.Now().Add(5*time.Second)) }()
	go func() { defer wg.Done(); results[1] = r.Park(2, time.Now().Add(5*time.Second)) }()

	time.Sleep(20 * time.Millisecond)
	r.DrainAll()
	wg.Wait()

	assert.Nil(t, results[0])
	assert.Nil(t, results[1])
}

func TestConcurrentReserveCollision(t *testing.T) {
	r := New()
	require.NoError(t, r.Reserve(100, "clear"))

	var wg sync.WaitGroup
	errs := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- r.Reserve(100, "clear")
	}()
	wg.Wait()
	close(errs)

	err := <-errs
	assert.ErrorIs(t, err, ErrTanNotAvailable)
}
