package registry_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamalsoueidan/hydrogen/pkg/analytics/registry"
)

func TestEmptyRegistryIsVacuouslyReady(t *testing.T) {
	r := registry.New()
	assert.True(t, r.Ready())
	assert.Equal(t, 0, r.Len())
}

func TestRegisterClosesGate(t *testing.T) {
	r := registry.New()

	ready := r.Register("pixel")
	assert.False(t, r.Ready())

	ready()
	assert.True(t, r.Ready())
}

func TestRegisterIdempotentByKey(t *testing.T) {
	r := registry.New()

	ready1 := r.Register("x")
	ready2 := r.Register("x")
	require.Equal(t, 1, r.Len())

	// Either closure marks the same underlying flag.
	ready2()
	assert.True(t, r.Ready())

	// Re-registering a ready key preserves its readiness value.
	r.Register("x")
	assert.True(t, r.Ready())

	ready1() // redundant, no effect
	assert.True(t, r.Ready())
}

func TestReadyRequiresAllKeys(t *testing.T) {
	r := registry.New()

	readyA := r.Register("a")
	readyB := r.Register("b")

	readyA()
	assert.False(t, r.Ready(), "gate must stay closed while b is pending")

	readyB()
	assert.True(t, r.Ready())
}

func TestOnAllReadyFiresOncePerTransition(t *testing.T) {
	r := registry.New()

	var fired int
	r.OnAllReady(func() { fired++ })

	readyA := r.Register("a")
	readyB := r.Register("b")

	readyA()
	assert.Equal(t, 0, fired)

	readyB()
	assert.Equal(t, 1, fired)

	// Redundant ready calls do not re-fire the hook.
	readyA()
	readyB()
	assert.Equal(t, 1, fired)
}

func TestOnAllReadyFiresAgainAfterNewRegistration(t *testing.T) {
	r := registry.New()

	var fired int
	r.OnAllReady(func() { fired++ })

	r.Register("a")()
	require.Equal(t, 1, fired)

	// A late registration closes the gate again; its ready call reopens it.
	readyB := r.Register("b")
	assert.False(t, r.Ready())

	readyB()
	assert.Equal(t, 2, fired)
}

func TestReadyCallIsIdempotent(t *testing.T) {
	r := registry.New()

	ready := r.Register("x")
	ready()
	ready()
	assert.True(t, r.Ready())
}

func TestHasAndKeys(t *testing.T) {
	r := registry.New()
	r.Register("a")
	r.Register("b")

	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("c"))
	assert.ElementsMatch(t, []string{"a", "b"}, r.Keys())
}

func TestNewKey(t *testing.T) {
	a := registry.NewKey("pixel")
	b := registry.NewKey("pixel")

	assert.True(t, strings.HasPrefix(a, "pixel-"))
	assert.NotEqual(t, a, b)
}
