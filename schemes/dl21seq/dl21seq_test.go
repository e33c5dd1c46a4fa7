package dl21seq_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/groupsig/pkg/join"
	"github.com/luxfi/groupsig/pkg/scheme"
	"github.com/luxfi/groupsig/schemes/dl21seq"
)

func setup(t *testing.T) (scheme.Ops, scheme.GroupKey, scheme.ManagerKey) {
	t.Helper()
	ops, err := scheme.Lookup(scheme.DL21SEQ)
	require.NoError(t, err)
	grp, mgr, err := ops.Setup(nil, nil)
	require.NoError(t, err)
	return ops, grp, mgr
}

func joinNoGML(t *testing.T, ops scheme.Ops, grp scheme.GroupKey, mgr scheme.ManagerKey) scheme.MemberKey {
	t.Helper()
	mem, err := join.RunLocal(ops, grp, mgr, nil, nil)
	require.NoError(t, err)
	return mem
}

// atCounter returns a copy of mem with SeqCounter set to i, modelling
// the caller-persisted counter: the caller bumps its own copy of
// MemberKey before every Sign call.
func atCounter(t *testing.T, mem scheme.MemberKey, i uint64) scheme.MemberKey {
	t.Helper()
	m, ok := mem.(dl21seq.MemberKey)
	require.True(t, ok)
	m.SeqCounter = i
	return m
}

func TestSetupJoinSignVerify(t *testing.T) {
	ops, grp, mgr := setup(t)
	mem := joinNoGML(t, ops, grp, mgr)

	sig, err := ops.Sign(atCounter(t, mem, 1), grp, []byte("m1"), scheme.SignOptions{Scope: []byte("scope-S")})
	require.NoError(t, err)

	ok, err := ops.Verify(sig, []byte("m1"), grp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignRequiresScope(t *testing.T) {
	ops, grp, mgr := setup(t)
	mem := joinNoGML(t, ops, grp, mgr)

	_, err := ops.Sign(atCounter(t, mem, 1), grp, []byte("m1"), scheme.SignOptions{})
	assert.Error(t, err)
}

// TestSeqLinkVerifiesInOrder: three consecutive signatures by the same
// member chain correctly; the member's proof opens the chain for a
// keyless verifier.
func TestSeqLinkVerifiesInOrder(t *testing.T) {
	ops, grp, mgr := setup(t)
	mem := joinNoGML(t, ops, grp, mgr)
	scope := []byte("scope-S")

	msgs := [][]byte{[]byte("m1"), []byte("m2"), []byte("m3")}
	sigs := make([]scheme.Signature, len(msgs))
	for i, m := range msgs {
		s, err := ops.Sign(atCounter(t, mem, uint64(i+1)), grp, m, scheme.SignOptions{Scope: scope})
		require.NoError(t, err)
		sigs[i] = s
	}

	seqLinker := ops.(scheme.SequentialLinker)
	reqMsg := []byte("seq-link-request")
	proof, err := seqLinker.SeqLink(grp, mem, reqMsg, sigs, msgs)
	require.NoError(t, err)

	ok, brokenAt, err := seqLinker.VerifySeqLink(proof, grp, reqMsg, sigs, msgs)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, -1, brokenAt)
}

// TestSeqLinkBreaksOnReorder: a proof over the true order m1,m2,m3
// must not verify against the reordering m1,m3,m2; the chain breaks at
// index 1.
func TestSeqLinkBreaksOnReorder(t *testing.T) {
	ops, grp, mgr := setup(t)
	mem := joinNoGML(t, ops, grp, mgr)
	scope := []byte("scope-S")

	msgs := [][]byte{[]byte("m1"), []byte("m2"), []byte("m3")}
	sigs := make([]scheme.Signature, len(msgs))
	for i, m := range msgs {
		s, err := ops.Sign(atCounter(t, mem, uint64(i+1)), grp, m, scheme.SignOptions{Scope: scope})
		require.NoError(t, err)
		sigs[i] = s
	}

	seqLinker := ops.(scheme.SequentialLinker)
	reqMsg := []byte("seq-link-request")
	proof, err := seqLinker.SeqLink(grp, mem, reqMsg, sigs, msgs)
	require.NoError(t, err)

	reorderedSigs := []scheme.Signature{sigs[0], sigs[2], sigs[1]}
	reorderedMsgs := [][]byte{msgs[0], msgs[2], msgs[1]}

	ok, brokenAt, err := seqLinker.VerifySeqLink(proof, grp, reqMsg, reorderedSigs, reorderedMsgs)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, brokenAt)
}

// TestSeqProofMarshalRoundTrip: a sequential-link proof survives its
// wire form and still verifies.
func TestSeqProofMarshalRoundTrip(t *testing.T) {
	ops, grp, mgr := setup(t)
	mem := joinNoGML(t, ops, grp, mgr)
	scope := []byte("scope-rt")

	msgs := [][]byte{[]byte("a"), []byte("b")}
	sigs := make([]scheme.Signature, len(msgs))
	for i, m := range msgs {
		s, err := ops.Sign(atCounter(t, mem, uint64(i+1)), grp, m, scheme.SignOptions{Scope: scope})
		require.NoError(t, err)
		sigs[i] = s
	}

	seqLinker := ops.(scheme.SequentialLinker)
	reqMsg := []byte("req")
	proof, err := seqLinker.SeqLink(grp, mem, reqMsg, sigs, msgs)
	require.NoError(t, err)

	b, err := proof.MarshalBinary()
	require.NoError(t, err)
	proof2, err := ops.ImportProof(b)
	require.NoError(t, err)

	ok, brokenAt, err := seqLinker.VerifySeqLink(proof2, grp, reqMsg, sigs, msgs)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, -1, brokenAt)
}

func TestIdentifyMatchesOwnSignaturesOnly(t *testing.T) {
	ops, grp, mgr := setup(t)
	memI := joinNoGML(t, ops, grp, mgr)
	memJ := joinNoGML(t, ops, grp, mgr)

	sig, err := ops.Sign(atCounter(t, memI, 1), grp, []byte("m"), scheme.SignOptions{Scope: []byte("scope-S")})
	require.NoError(t, err)

	linker := ops.(scheme.Linker)
	okI, err := linker.Identify(grp, memI, sig, []byte("m"))
	require.NoError(t, err)
	assert.True(t, okI)

	okJ, err := linker.Identify(grp, memJ, sig, []byte("m"))
	require.NoError(t, err)
	assert.False(t, okJ)
}

func TestSignatureMarshalRoundTrip(t *testing.T) {
	ops, grp, mgr := setup(t)
	mem := joinNoGML(t, ops, grp, mgr)

	msg := []byte("round trip")
	sig, err := ops.Sign(atCounter(t, mem, 1), grp, msg, scheme.SignOptions{Scope: []byte("scope-rt")})
	require.NoError(t, err)

	b, err := sig.MarshalBinary()
	require.NoError(t, err)

	sig2, err := ops.ImportSignature(b)
	require.NoError(t, err)

	ok, err := ops.Verify(sig2, msg, grp)
	require.NoError(t, err)
	assert.True(t, ok)
}
