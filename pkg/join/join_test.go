package join_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/groupsig/pkg/join"
	"github.com/luxfi/groupsig/pkg/scheme"
)

// fakeMemberKey/fakeGroupKey/fakeManagerKey are the minimal stand-ins
// needed to exercise the join FSM without depending on any concrete
// scheme package (those are built on top of pkg/join, not the reverse).
type fakeGroupKey struct{}

func (fakeGroupKey) Scheme() scheme.Code            { return scheme.BBS04 }
func (fakeGroupKey) MarshalBinary() ([]byte, error) { return nil, nil }

type fakeManagerKey struct{}

func (fakeManagerKey) Scheme() scheme.Code            { return scheme.BBS04 }
func (fakeManagerKey) MarshalBinary() ([]byte, error) { return nil, nil }

type fakeMemberKey struct{ nonce []byte }

func (fakeMemberKey) Scheme() scheme.Code            { return scheme.BBS04 }
func (fakeMemberKey) MarshalBinary() ([]byte, error) { return nil, nil }

// twoStepOps implements the same three-message shape every real scheme
// in the tree declares (JoinStart:0, JoinSeq:3): manager sends a nonce
// at seq0, member echoes it back signed at seq1, manager appends a GML
// entry and sends a terminal credential at seq2, which the member
// consumes to finish. The manager's seq1 case returning a non-nil
// terminal message (mirroring bbs04.go/klap20.go/gl19.go/dl21.go) is
// what forces the member to Accept a second inbound message.
type twoStepOps struct{ d scheme.Descriptor }

func (o twoStepOps) Descriptor() scheme.Descriptor { return o.d }
func (twoStepOps) Setup(scheme.GroupKey, scheme.ManagerKey) (scheme.GroupKey, scheme.ManagerKey, error) {
	return fakeGroupKey{}, fakeManagerKey{}, nil
}

func (twoStepOps) JoinMember(mem scheme.MemberKey, seq int, in []byte, grp scheme.GroupKey) ([]byte, scheme.MemberKey, bool, error) {
	switch seq {
	case 0:
		return append([]byte("echo:"), in...), fakeMemberKey{nonce: in}, false, nil
	case 2:
		return nil, fakeMemberKey{nonce: in}, true, nil
	default:
		return nil, mem, false, nil
	}
}

func (twoStepOps) JoinManager(mgr scheme.ManagerKey, seq int, in []byte, grp scheme.GroupKey, appendGML func(scheme.GMLEntry) (uint64, error)) ([]byte, bool, error) {
	switch seq {
	case 0:
		return []byte("nonce"), false, nil
	case 1:
		if appendGML != nil {
			if _, err := appendGML(scheme.GMLEntry{SchemeCode: scheme.BBS04, Trapdoor: in}); err != nil {
				return nil, false, err
			}
		}
		return []byte("credential"), true, nil
	}
	return nil, true, nil
}

func (twoStepOps) Sign(scheme.MemberKey, scheme.GroupKey, []byte, scheme.SignOptions) (scheme.Signature, error) {
	return nil, nil
}
func (twoStepOps) Verify(scheme.Signature, []byte, scheme.GroupKey) (bool, error) { return false, nil }
func (twoStepOps) VerifyBatch([]scheme.Signature, [][]byte, scheme.GroupKey) (bool, error) {
	return false, nil
}
func (twoStepOps) ImportGroupKey([]byte) (scheme.GroupKey, error)     { return nil, nil }
func (twoStepOps) ImportManagerKey([]byte) (scheme.ManagerKey, error) { return nil, nil }
func (twoStepOps) ImportMemberKey([]byte) (scheme.MemberKey, error)   { return nil, nil }
func (twoStepOps) ImportSignature([]byte) (scheme.Signature, error)   { return nil, nil }
func (twoStepOps) ImportProof([]byte) (scheme.Proof, error)           { return nil, nil }

func TestRunLocalCompletesJoinAndAppendsGML(t *testing.T) {
	ops := twoStepOps{d: scheme.Descriptor{Code: scheme.BBS04, JoinStart: 0, JoinSeq: 3}}

	var gmlEntries []scheme.GMLEntry
	appendGML := func(e scheme.GMLEntry) (uint64, error) {
		idx := uint64(len(gmlEntries))
		e.Index = idx
		gmlEntries = append(gmlEntries, e)
		return idx, nil
	}

	memKey, err := join.RunLocal(ops, fakeGroupKey{}, fakeManagerKey{}, fakeMemberKey{}, appendGML)
	require.NoError(t, err)
	assert.NotNil(t, memKey)
	require.Len(t, gmlEntries, 1)
	assert.True(t, bytes.Equal(gmlEntries[0].Trapdoor, []byte("echo:nonce")))
}

func TestMessageRoundTrip(t *testing.T) {
	m := join.Message{Seq: 2, Body: []byte("payload")}
	b, err := m.Marshal()
	require.NoError(t, err)

	got, err := join.UnmarshalMessage(b)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestSessionRejectsOutOfOrderSeq(t *testing.T) {
	ops := twoStepOps{d: scheme.Descriptor{Code: scheme.BBS04, JoinStart: 0, JoinSeq: 3}}
	mem := join.NewMemberSession(scheme.BBS04, fakeGroupKey{}, fakeMemberKey{})
	_, err := mem.Accept(ops, join.Message{Seq: 5, Body: []byte("x")})
	assert.Error(t, err)
}
