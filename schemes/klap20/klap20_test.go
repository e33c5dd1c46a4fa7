package klap20_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/groupsig/pkg/gml"
	"github.com/luxfi/groupsig/pkg/join"
	"github.com/luxfi/groupsig/pkg/scheme"
	_ "github.com/luxfi/groupsig/schemes/klap20"
)

func setup(t *testing.T) (scheme.Ops, scheme.GroupKey, scheme.ManagerKey) {
	t.Helper()
	ops, err := scheme.Lookup(scheme.KLAP20)
	require.NoError(t, err)
	grp, mgr, err := ops.Setup(nil, nil)
	require.NoError(t, err)
	grp, mgr, err = ops.Setup(grp, mgr)
	require.NoError(t, err)
	return ops, grp, mgr
}

func TestSetupJoinSignVerify(t *testing.T) {
	ops, grp, mgr := setup(t)
	g := gml.New(scheme.KLAP20)

	mem, err := join.RunLocal(ops, grp, mgr, nil, g.Append)
	require.NoError(t, err)

	msg := []byte("klap20 open test message")
	sig, err := ops.Sign(mem, grp, msg, scheme.SignOptions{})
	require.NoError(t, err)

	ok, err := ops.Verify(sig, msg, grp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenFindsSigner(t *testing.T) {
	ops, grp, mgr := setup(t)
	g := gml.New(scheme.KLAP20)

	memA, err := join.RunLocal(ops, grp, mgr, nil, g.Append)
	require.NoError(t, err)
	_, err = join.RunLocal(ops, grp, mgr, nil, g.Append)
	require.NoError(t, err)

	msg := []byte("who signed this")
	sig, err := ops.Sign(memA, grp, msg, scheme.SignOptions{})
	require.NoError(t, err)

	opener := ops.(scheme.Opener)
	idx, proof, status, err := opener.Open(sig, grp, mgr, g.Entries())
	require.NoError(t, err)
	assert.Equal(t, scheme.OpenOK, status)
	assert.Equal(t, uint64(0), idx)

	ok, err := opener.OpenVerify(proof, sig, grp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenFailsWhenTrapdoorPruned(t *testing.T) {
	ops, grp, mgr := setup(t)
	g := gml.New(scheme.KLAP20)

	mem, err := join.RunLocal(ops, grp, mgr, nil, g.Append)
	require.NoError(t, err)

	msg := []byte("pruned member")
	sig, err := ops.Sign(mem, grp, msg, scheme.SignOptions{})
	require.NoError(t, err)

	opener := ops.(scheme.Opener)
	_, _, status, err := opener.Open(sig, grp, mgr, nil)
	require.NoError(t, err)
	assert.Equal(t, scheme.OpenFail, status)
}

func TestVerifyBatch(t *testing.T) {
	ops, grp, mgr := setup(t)
	g := gml.New(scheme.KLAP20)

	const n = 3
	sigs := make([]scheme.Signature, n)
	msgs := make([][]byte, n)
	for i := 0; i < n; i++ {
		mem, err := join.RunLocal(ops, grp, mgr, nil, g.Append)
		require.NoError(t, err)
		msgs[i] = []byte("batch msg")
		sig, err := ops.Sign(mem, grp, msgs[i], scheme.SignOptions{})
		require.NoError(t, err)
		sigs[i] = sig
	}

	ok, err := ops.VerifyBatch(sigs, msgs, grp)
	require.NoError(t, err)
	assert.True(t, ok)
}
