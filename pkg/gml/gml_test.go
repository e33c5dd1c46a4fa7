package gml_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/groupsig/pkg/gml"
	"github.com/luxfi/groupsig/pkg/scheme"
)

func TestAppendIsDenseAndMonotone(t *testing.T) {
	g := gml.New(scheme.KLAP20)
	for i := 0; i < 5; i++ {
		idx, err := g.Append(scheme.GMLEntry{SchemeCode: scheme.KLAP20, Trapdoor: []byte{byte(i)}})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), idx)
	}
	assert.Equal(t, 5, g.Len())
}

func TestFindByTrapdoor(t *testing.T) {
	g := gml.New(scheme.KLAP20)
	_, _ = g.Append(scheme.GMLEntry{SchemeCode: scheme.KLAP20, Trapdoor: []byte("alice")})
	idx, _ := g.Append(scheme.GMLEntry{SchemeCode: scheme.KLAP20, Trapdoor: []byte("bob")})

	entry, ok := g.FindByTrapdoor([]byte("bob"))
	require.True(t, ok)
	assert.Equal(t, idx, entry.Index)

	_, ok = g.FindByTrapdoor([]byte("carol"))
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	g := gml.New(scheme.BBS04)
	for i := 0; i < 3; i++ {
		_, err := g.Append(scheme.GMLEntry{
			SchemeCode: scheme.BBS04,
			Trapdoor:   []byte{byte(i), byte(i + 1)},
			Extra:      []byte("meta"),
		})
		require.NoError(t, err)
	}

	data, err := g.MarshalBinary()
	require.NoError(t, err)

	g2, err := gml.Import(data)
	require.NoError(t, err)
	assert.Equal(t, g.Entries(), g2.Entries())
}

func TestConcurrentAppendAndRead(t *testing.T) {
	g := gml.New(scheme.BBS04)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = g.Append(scheme.GMLEntry{SchemeCode: scheme.BBS04, Trapdoor: []byte{byte(i)}})
		}(i)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Entries()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, g.Len())

	// indices must still be a dense permutation of 0..49
	seen := make(map[uint64]bool)
	for _, e := range g.Entries() {
		seen[e.Index] = true
	}
	assert.Len(t, seen, 50)
}
