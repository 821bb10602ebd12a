package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLastWriteWins(t *testing.T) {
	reg := NewRegistry()

	c1 := NewClient("conn1", "A", nil, 8)
	c2 := NewClient("conn2", "A", nil, 8)

	evicted := reg.Register("A", c1)
	require.Nil(t, evicted)
	require.Same(t, c1, reg.Lookup("A"))

	evicted = reg.Register("A", c2)
	require.Same(t, c1, evicted, "first connection is implicitly evicted")
	require.Same(t, c2, reg.Lookup("A"), "only the second connection stays addressable")

	// the evicted conn is gone from the transport list too
	for _, c := range reg.Clients() {
		assert.NotEqual(t, "conn1", c.ConnID)
	}
}

func TestRegistryUnregister(t *testing.T) {
	reg := NewRegistry()
	c1 := NewClient("conn1", "A", nil, 8)
	reg.Register("A", c1)

	// wrong conn id: the binding survives (a stale disconnect must not
	// tear down the replacement)
	reg.Unregister("A", "conn0")
	require.Same(t, c1, reg.Lookup("A"))

	reg.Unregister("A", "conn1")
	require.Nil(t, reg.Lookup("A"))

	// absent user: no-op, not an error
	reg.Unregister("A", "conn1")
	reg.Unregister("nobody", "")
	require.Nil(t, reg.Lookup("nobody"))
}

func TestRegistrySnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Register("A", NewClient("conn1", "A", nil, 8))
	reg.Register("B", NewClient("conn2", "B", nil, 8))

	require.ElementsMatch(t, []string{"A", "B"}, reg.Snapshot())

	reg.Unregister("B", "")
	require.ElementsMatch(t, []string{"A"}, reg.Snapshot())
}

func TestRegistryDetach(t *testing.T) {
	reg := NewRegistry()
	c1 := NewClient("conn1", "A", nil, 8)
	reg.Attach(c1)
	reg.Register("A", c1)

	c2 := NewClient("conn2", "A", nil, 8)
	reg.Register("A", c2)

	// detaching the replaced connection must not unbind the newer one
	reg.Detach(c1)
	require.Same(t, c2, reg.Lookup("A"))

	reg.Detach(c2)
	require.Nil(t, reg.Lookup("A"))
	require.Empty(t, reg.Clients())
}

func TestRegistryMutateHookOutsideLock(t *testing.T) {
	reg := NewRegistry()
	var calls int
	// the hook reads the registry; it would deadlock if fired under the lock
	reg.OnMutate(func() {
		_ = reg.Snapshot()
		_ = reg.Clients()
		calls++
	})

	reg.Register("A", NewClient("conn1", "A", nil, 8))
	reg.Unregister("A", "")
	require.Equal(t, 2, calls)
}

func TestRegistryConcurrentChurn(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", n%4)
			for j := 0; j < 100; j++ {
				c := NewClient(fmt.Sprintf("conn-%d-%d", n, j), user, nil, 1)
				reg.Register(user, c)
				reg.Unregister(user, c.ConnID)
			}
		}(i)
	}
	wg.Wait()

	// interleaved connects/disconnects for different users never leave
	// stale entries behind
	require.LessOrEqual(t, reg.Len(), 4)
}
