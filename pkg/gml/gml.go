// Package gml implements the Group Membership List: an append-only,
// ordered ledger of issued credentials, safe for one appender and
// concurrent readers.
package gml

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/luxfi/groupsig/pkg/gserr"
	"github.com/luxfi/groupsig/pkg/scheme"
)

// GML holds one scheme's membership ledger. Entries are appended by
// join_mgr and never rewritten; indices are dense, monotone, and unique.
//
// One mutex guards mutate-then-read rather than separate read/write
// structures.
type GML struct {
	mu      sync.RWMutex
	code    scheme.Code
	entries []scheme.GMLEntry
}

// New creates an empty GML for the given scheme.
func New(code scheme.Code) *GML {
	return &GML{code: code}
}

func (g *GML) Scheme() scheme.Code { return g.code }

// Append adds a new entry, assigning it the next dense index. Safe for
// concurrent use; serialises against Append and Entries.
func (g *GML) Append(entry scheme.GMLEntry) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if entry.SchemeCode != g.code {
		return 0, gserr.New(gserr.InvalidArgument, "gml.Append",
			fmt.Errorf("entry scheme %d != GML scheme %d", entry.SchemeCode, g.code))
	}
	entry.Index = uint64(len(g.entries))
	g.entries = append(g.entries, entry)
	return entry.Index, nil
}

// Entries returns a snapshot copy of every entry, safe to range over
// concurrently with further Appends.
func (g *GML) Entries() []scheme.GMLEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]scheme.GMLEntry, len(g.entries))
	copy(out, g.entries)
	return out
}

// At returns the entry at index, or ok=false if out of range.
func (g *GML) At(index uint64) (scheme.GMLEntry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if index >= uint64(len(g.entries)) {
		return scheme.GMLEntry{}, false
	}
	return g.entries[index], true
}

// Len returns the number of entries.
func (g *GML) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// FindByTrapdoor linear-scans for the entry whose Trapdoor matches tau.
// Returns ok=false (not an error) when no entry matches; distinguishing
// not-found from hard failure is the caller's concern (scheme Ops.Open).
func (g *GML) FindByTrapdoor(tau []byte) (scheme.GMLEntry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.entries {
		if bytesEqual(e.Trapdoor, tau) {
			return e, true
		}
	}
	return scheme.GMLEntry{}, false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MarshalBinary emits
// code | count(uint64) | entry_1 | ... | entry_count, where each entry
// is code | index(uint64) | len(trapdoor) | trapdoor | len(extra) | extra.
// Integers are big-endian; length fields are uint32.
func (g *GML) MarshalBinary() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	buf := []byte{byte(g.code)}
	buf = appendUint64(buf, uint64(len(g.entries)))
	for _, e := range g.entries {
		buf = append(buf, byte(e.SchemeCode))
		buf = appendUint64(buf, e.Index)
		buf = appendUint32Bytes(buf, e.Trapdoor)
		buf = appendUint32Bytes(buf, e.Extra)
	}
	return buf, nil
}

// Import parses the layout MarshalBinary emits.
func Import(data []byte) (*GML, error) {
	if len(data) < 9 {
		return nil, gserr.New(gserr.Serialisation, "gml.Import", fmt.Errorf("short buffer"))
	}
	code := scheme.Code(data[0])
	count := binary.BigEndian.Uint64(data[1:9])
	off := 9
	g := New(code)
	for i := uint64(0); i < count; i++ {
		if off >= len(data) {
			return nil, gserr.New(gserr.Serialisation, "gml.Import", fmt.Errorf("truncated entry %d", i))
		}
		entryCode := scheme.Code(data[off])
		off++
		if off+8 > len(data) {
			return nil, gserr.New(gserr.Serialisation, "gml.Import", fmt.Errorf("truncated index %d", i))
		}
		index := binary.BigEndian.Uint64(data[off : off+8])
		off += 8
		trapdoor, n, err := readUint32Bytes(data, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "gml.Import", err)
		}
		off = n
		extra, n, err := readUint32Bytes(data, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "gml.Import", err)
		}
		off = n
		g.entries = append(g.entries, scheme.GMLEntry{
			SchemeCode: entryCode,
			Index:      index,
			Trapdoor:   trapdoor,
			Extra:      extra,
		})
	}
	return g, nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendUint32Bytes(buf []byte, data []byte) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(len(data)))
	buf = append(buf, b[:]...)
	return append(buf, data...)
}

func readUint32Bytes(data []byte, off int) ([]byte, int, error) {
	if off+4 > len(data) {
		return nil, 0, fmt.Errorf("truncated length field")
	}
	n := int(binary.BigEndian.Uint32(data[off : off+4]))
	off += 4
	if off+n > len(data) {
		return nil, 0, fmt.Errorf("truncated value of length %d", n)
	}
	return data[off : off+n], off + n, nil
}
