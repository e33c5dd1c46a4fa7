package dl21_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/groupsig/pkg/join"
	"github.com/luxfi/groupsig/pkg/scheme"
	_ "github.com/luxfi/groupsig/schemes/dl21"
)

func setup(t *testing.T) (scheme.Ops, scheme.GroupKey, scheme.ManagerKey) {
	t.Helper()
	ops, err := scheme.Lookup(scheme.DL21)
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

func TestSetupJoinSignVerify(t *testing.T) {
	ops, grp, mgr := setup(t)
	mem := joinNoGML(t, ops, grp, mgr)

	sig, err := ops.Sign(mem, grp, []byte("m1"), scheme.SignOptions{Scope: []byte("scope-S")})
	require.NoError(t, err)

	ok, err := ops.Verify(sig, []byte("m1"), grp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignRequiresScope(t *testing.T) {
	ops, grp, mgr := setup(t)
	mem := joinNoGML(t, ops, grp, mgr)

	_, err := ops.Sign(mem, grp, []byte("m1"), scheme.SignOptions{})
	assert.Error(t, err)
}

// TestIdentifyMatchesOwnSignaturesOnly: identify
// is true iff the candidate member produced the signature.
func TestIdentifyMatchesOwnSignaturesOnly(t *testing.T) {
	ops, grp, mgr := setup(t)
	memI := joinNoGML(t, ops, grp, mgr)
	memJ := joinNoGML(t, ops, grp, mgr)

	sig, err := ops.Sign(memI, grp, []byte("m"), scheme.SignOptions{Scope: []byte("scope-S")})
	require.NoError(t, err)

	linker := ops.(scheme.Linker)
	okI, err := linker.Identify(grp, memI, sig, []byte("m"))
	require.NoError(t, err)
	assert.True(t, okI)

	okJ, err := linker.Identify(grp, memJ, sig, []byte("m"))
	require.NoError(t, err)
	assert.False(t, okJ)
}

// TestLinkVerifiesAndRejectsSubstitution: link three
// signatures from the same member under one scope; swapping one for a
// different member's signature must break verify_link.
func TestLinkVerifiesAndRejectsSubstitution(t *testing.T) {
	ops, grp, mgr := setup(t)
	memD := joinNoGML(t, ops, grp, mgr)
	memE := joinNoGML(t, ops, grp, mgr)
	scope := []byte("scope-S")

	msgs := [][]byte{[]byte("m1"), []byte("m2"), []byte("m3")}
	sigs := make([]scheme.Signature, 3)
	for i, m := range msgs {
		s, err := ops.Sign(memD, grp, m, scheme.SignOptions{Scope: scope})
		require.NoError(t, err)
		sigs[i] = s
	}

	linker := ops.(scheme.Linker)
	linkMsg := []byte("link-request-1")
	proof, err := linker.Link(grp, memD, linkMsg, sigs, msgs)
	require.NoError(t, err)

	ok, err := linker.VerifyLink(proof, grp, linkMsg, sigs, msgs)
	require.NoError(t, err)
	assert.True(t, ok)

	badSig, err := ops.Sign(memE, grp, msgs[1], scheme.SignOptions{Scope: scope})
	require.NoError(t, err)
	tampered := append([]scheme.Signature(nil), sigs...)
	tampered[1] = badSig

	ok, err = linker.VerifyLink(proof, grp, linkMsg, tampered, msgs)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProofMarshalRoundTrip(t *testing.T) {
	ops, grp, mgr := setup(t)
	mem := joinNoGML(t, ops, grp, mgr)
	scope := []byte("scope-roundtrip")

	msgs := [][]byte{[]byte("a"), []byte("b")}
	sigs := make([]scheme.Signature, 2)
	for i, m := range msgs {
		s, err := ops.Sign(mem, grp, m, scheme.SignOptions{Scope: scope})
		require.NoError(t, err)
		sigs[i] = s
	}

	linker := ops.(scheme.Linker)
	proof, err := linker.Link(grp, mem, []byte("req"), sigs, msgs)
	require.NoError(t, err)

	b, err := proof.MarshalBinary()
	require.NoError(t, err)
	proof2, err := ops.ImportProof(b)
	require.NoError(t, err)

	ok, err := linker.VerifyLink(proof2, grp, []byte("req"), sigs, msgs)
	require.NoError(t, err)
	assert.True(t, ok)
}
