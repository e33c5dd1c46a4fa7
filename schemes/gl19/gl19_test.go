package gl19_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/groupsig/pkg/gml"
	"github.com/luxfi/groupsig/pkg/join"
	"github.com/luxfi/groupsig/pkg/scheme"
	"github.com/luxfi/groupsig/schemes/gl19"
)

func setup(t *testing.T) (scheme.Ops, scheme.GroupKey, scheme.ManagerKey) {
	t.Helper()
	ops, err := scheme.Lookup(scheme.GL19)
	require.NoError(t, err)
	grp, mgr, err := ops.Setup(nil, nil)
	require.NoError(t, err)
	return ops, grp, mgr
}

func TestSetupJoinSignVerify(t *testing.T) {
	ops, grp, mgr := setup(t)
	g := gml.New(scheme.GL19)

	mem, err := join.RunLocal(ops, grp, mgr, nil, g.Append)
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())

	msg := []byte("gl19 convert test message")
	sig, err := ops.Sign(mem, grp, msg, scheme.SignOptions{})
	require.NoError(t, err)

	ok, err := ops.Verify(sig, msg, grp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBlindConvertUnblindYieldsRescaledPseudonym(t *testing.T) {
	ops, grp, mgr := setup(t)
	g := gml.New(scheme.GL19)

	// Establish the Converter's persistent scaling secret (the scheme's
	// second Setup call) before Convert is usable.
	grp, mgr, err := ops.Setup(grp, mgr)
	require.NoError(t, err)

	mem, err := join.RunLocal(ops, grp, mgr, nil, g.Append)
	require.NoError(t, err)

	msg := []byte("domain-specific message")
	sig, err := ops.Sign(mem, grp, msg, scheme.SignOptions{})
	require.NoError(t, err)

	keyer := ops.(scheme.BlindKeyer)
	bk, err := keyer.NewBlindKey()
	require.NoError(t, err)

	converter := ops.(scheme.Converter)
	bsig, err := converter.Blind(sig, grp, bk)
	require.NoError(t, err)

	direct, err := converter.Unblind(bsig, bk, msg)
	require.NoError(t, err)

	converted, err := converter.Convert([]scheme.Signature{bsig}, grp, mgr)
	require.NoError(t, err)
	require.Len(t, converted, 1)

	rescaled, err := converter.Unblind(converted[0], bk, msg)
	require.NoError(t, err)

	assert.NotEqual(t, direct, rescaled, "converted pseudonym must differ from the original domain pseudonym")
}

func TestBlindKeyRoundTrip(t *testing.T) {
	ops, _, _ := setup(t)
	keyer := ops.(scheme.BlindKeyer)

	bk, err := keyer.NewBlindKey()
	require.NoError(t, err)

	b, err := bk.MarshalBinary()
	require.NoError(t, err)

	bk2, err := keyer.ImportBlindKey(b)
	require.NoError(t, err)
	assert.Equal(t, scheme.GL19, bk2.Scheme())
}

func TestSignRejectsExpiredCredential(t *testing.T) {
	ops, grp, mgr := setup(t)
	g := gml.New(scheme.GL19)

	mem, err := join.RunLocal(ops, grp, mgr, nil, g.Append)
	require.NoError(t, err)

	memKey := mem.(gl19.MemberKey)
	memKey.Expiry = 1 // already expired (unix epoch + 1s)

	_, err = ops.Sign(memKey, grp, []byte("too late"), scheme.SignOptions{})
	assert.Error(t, err)
}
