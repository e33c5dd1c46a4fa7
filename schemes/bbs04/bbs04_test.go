package bbs04_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/groupsig/pkg/gml"
	"github.com/luxfi/groupsig/pkg/join"
	"github.com/luxfi/groupsig/pkg/scheme"
	_ "github.com/luxfi/groupsig/schemes/bbs04"
)

func setupGroup(t *testing.T) (scheme.Ops, scheme.GroupKey, scheme.ManagerKey) {
	t.Helper()
	ops, err := scheme.Lookup(scheme.BBS04)
	require.NoError(t, err)
	grp, mgr, err := ops.Setup(nil, nil)
	require.NoError(t, err)
	return ops, grp, mgr
}

func joinMember(t *testing.T, ops scheme.Ops, grp scheme.GroupKey, mgr scheme.ManagerKey, g *gml.GML) scheme.MemberKey {
	t.Helper()
	memKey, err := join.RunLocal(ops, grp, mgr, nil, g.Append)
	require.NoError(t, err)
	return memKey
}

func TestRegisteredAtInit(t *testing.T) {
	descs := scheme.Descriptors()
	var found bool
	for _, d := range descs {
		if d.Code == scheme.BBS04 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSetupJoinSignVerify(t *testing.T) {
	ops, grp, mgr := setupGroup(t)
	g := gml.New(scheme.BBS04)

	mem := joinMember(t, ops, grp, mgr, g)
	assert.Equal(t, 1, g.Len())

	msg := []byte("vote: yes")
	sig, err := ops.Sign(mem, grp, msg, scheme.SignOptions{})
	require.NoError(t, err)

	ok, err := ops.Verify(sig, msg, grp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsWrongMessage(t *testing.T) {
	ops, grp, mgr := setupGroup(t)
	g := gml.New(scheme.BBS04)
	mem := joinMember(t, ops, grp, mgr, g)

	sig, err := ops.Sign(mem, grp, []byte("original"), scheme.SignOptions{})
	require.NoError(t, err)

	ok, err := ops.Verify(sig, []byte("tampered"), grp)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignatureMarshalRoundTrip(t *testing.T) {
	ops, grp, mgr := setupGroup(t)
	g := gml.New(scheme.BBS04)
	mem := joinMember(t, ops, grp, mgr, g)

	msg := []byte("round trip")
	sig, err := ops.Sign(mem, grp, msg, scheme.SignOptions{})
	require.NoError(t, err)

	b, err := sig.MarshalBinary()
	require.NoError(t, err)

	sig2, err := ops.ImportSignature(b)
	require.NoError(t, err)

	ok, err := ops.Verify(sig2, msg, grp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyBatch(t *testing.T) {
	ops, grp, mgr := setupGroup(t)
	g := gml.New(scheme.BBS04)

	const n = 3
	sigs := make([]scheme.Signature, n)
	msgs := make([][]byte, n)
	for i := 0; i < n; i++ {
		mem := joinMember(t, ops, grp, mgr, g)
		msgs[i] = []byte("msg")
		sig, err := ops.Sign(mem, grp, msgs[i], scheme.SignOptions{})
		require.NoError(t, err)
		sigs[i] = sig
	}

	ok, err := ops.VerifyBatch(sigs, msgs, grp)
	require.NoError(t, err)
	assert.True(t, ok)
}
