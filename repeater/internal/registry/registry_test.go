package registry

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddFindRemove(t *testing.T) {
	r := New[string]()

	_, ok := r.Find("wifi1")
	require.False(t, ok)

	require.True(t, r.Add("wifi0"))
	_, ok = r.Find("wifi1")
	require.False(t, ok, "unrelated radio must not be found until added")

	require.True(t, r.Add("wifi1"))
	radio, ok := r.Find("wifi1")
	require.True(t, ok)
	require.Equal(t, Radio[string]{ID: "wifi1"}, radio)

	// Duplicates are rejected.
	require.False(t, r.Add("wifi0"))
	require.Equal(t, 2, r.Len())

	require.True(t, r.Remove("wifi0"))
	require.False(t, r.Remove("wifi0"))
	_, ok = r.Find("wifi0")
	require.False(t, ok)
	require.Equal(t, 1, r.Len())
}

func TestFlags(t *testing.T) {
	r := New[string]()

	require.False(t, r.SetFastLane("wifi0", true))
	require.False(t, r.SetNoBackhaul("wifi0", true))

	require.True(t, r.Add("wifi0"))
	require.Equal(t, Kind(0), r.Kind("wifi0"))

	require.True(t, r.SetFastLane("wifi0", true))
	require.True(t, r.SetNoBackhaul("wifi0", true))
	require.True(t, r.Kind("wifi0").Has(KindFastLane))
	require.True(t, r.Kind("wifi0").Has(KindNoBackhaul))
	require.Equal(t, "fast-lane|no-backhaul", r.Kind("wifi0").String())

	require.True(t, r.SetFastLane("wifi0", false))
	require.Equal(t, KindNoBackhaul, r.Kind("wifi0"))
	require.Equal(t, "no-backhaul", r.Kind("wifi0").String())

	require.Equal(t, Kind(0), r.Kind("unknown"))
	require.Equal(t, "regular", Kind(0).String())
}

func TestStationMapping(t *testing.T) {
	r := New[string]()

	require.False(t, r.SetStation("wifi0", "sta0"))
	require.False(t, r.ClearStation("wifi0"))

	require.True(t, r.Add("wifi0"))
	_, ok := r.Station("wifi0")
	require.False(t, ok)

	// Clearing an empty mapping succeeds.
	require.True(t, r.ClearStation("wifi0"))

	require.True(t, r.SetStation("wifi0", "sta0"))
	// No silent overwrite.
	require.False(t, r.SetStation("wifi0", "sta1"))

	sta, ok := r.Station("wifi0")
	require.True(t, ok)
	require.Equal(t, "sta0", sta)

	require.True(t, r.ClearStation("wifi0"))
	_, ok = r.Station("wifi0")
	require.False(t, ok)

	require.True(t, r.SetStation("wifi0", "sta1"))
	sta, _ = r.Station("wifi0")
	require.Equal(t, "sta1", sta)
}

func TestPrimary(t *testing.T) {
	r := New[string]()

	_, ok := r.Primary()
	require.False(t, ok)
	require.False(t, r.IsPrimary("wifi0"))

	// The primary radio does not need to be registered.
	r.SetPrimary("wifi0")
	primary, ok := r.Primary()
	require.True(t, ok)
	require.Equal(t, RadioID("wifi0"), primary)
	require.True(t, r.IsPrimary("wifi0"))
	require.False(t, r.IsPrimary("wifi1"))
}

func TestIsPrimaryFastLaneGroup(t *testing.T) {
	r := New[string]()
	for _, id := range []RadioID{"wifi0", "wifi1", "wifi2"} {
		require.True(t, r.Add(id))
	}
	r.SetPrimary("wifi0")

	// A fast-lane radio alone is not primary.
	require.True(t, r.SetFastLane("wifi1", true))
	require.False(t, r.IsPrimary("wifi1"))

	// Once the primary radio is fast-lane, all fast-lane radios share it.
	require.True(t, r.SetFastLane("wifi0", true))
	require.True(t, r.IsPrimary("wifi1"))
	require.False(t, r.IsPrimary("wifi2"))

	// Primary pointing to an unregistered radio breaks the group.
	r.SetPrimary("wifi9")
	require.False(t, r.IsPrimary("wifi1"))
	require.True(t, r.IsPrimary("wifi9"))
}

func TestRadiosSnapshot(t *testing.T) {
	r := New[string]()
	require.True(t, r.Add("wifi0"))
	require.True(t, r.Add("wifi1"))

	ids := []RadioID{}
	for radio := range r.Radios() {
		ids = append(ids, radio.ID)
		// Mutating the registry while iterating must not deadlock.
		r.SetFastLane(radio.ID, true)
	}
	require.Equal(t, []RadioID{"wifi0", "wifi1"}, ids)

	require.True(t, r.Remove("wifi0"))
	require.Equal(t, []RadioID{"wifi1"}, slices.Collect(func(yield func(RadioID) bool) {
		for radio := range r.Radios() {
			if !yield(radio.ID) {
				return
			}
		}
	}))
}

func TestConcurrentAccess(t *testing.T) {
	r := New[int]()

	wg := sync.WaitGroup{}
	for idx := range 8 {
		id := RadioID(fmt.Sprintf("wifi%d", idx))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.Add(id)
				r.SetStation(id, idx)
				r.IsPrimary(id)
				r.ClearStation(id)
				r.Remove(id)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 0, r.Len())
}
