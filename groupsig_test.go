package groupsig_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	groupsig "github.com/luxfi/groupsig"
	"github.com/luxfi/groupsig/pkg/scheme"
	_ "github.com/luxfi/groupsig/schemes/bbs04"
	_ "github.com/luxfi/groupsig/schemes/dl21"
	_ "github.com/luxfi/groupsig/schemes/gl19"
	_ "github.com/luxfi/groupsig/schemes/klap20"
)

// TestKLAP20OpenRecoversSigner: two-member group, A signs, Open
// recovers A's index, OpenVerify confirms the proof.
func TestKLAP20OpenRecoversSigner(t *testing.T) {
	grp, mgr, err := groupsig.Setup(groupsig.KLAP20, nil, nil)
	require.NoError(t, err)
	grp, mgr, err = groupsig.Setup(groupsig.KLAP20, grp, mgr)
	require.NoError(t, err)

	g := groupsig.NewGML(groupsig.KLAP20)
	memA, err := groupsig.Join(groupsig.KLAP20, grp, mgr, g)
	require.NoError(t, err)
	_, err = groupsig.Join(groupsig.KLAP20, grp, mgr, g)
	require.NoError(t, err)

	msg := []byte("hello")
	sig, err := groupsig.Sign(groupsig.KLAP20, memA, grp, msg, groupsig.SignOptions{})
	require.NoError(t, err)

	ok, err := groupsig.Verify(groupsig.KLAP20, sig, msg, grp)
	require.NoError(t, err)
	assert.True(t, ok)

	idx, proof, status, err := groupsig.Open(groupsig.KLAP20, sig, grp, mgr, g)
	require.NoError(t, err)
	assert.Equal(t, groupsig.OpenOK, status)
	assert.Equal(t, uint64(0), idx)

	ok, err = groupsig.OpenVerify(groupsig.KLAP20, proof, sig, grp)
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestGL19ConvertYieldsStablePseudonym: sign, blind, convert a batch
// of one, unblind to a stable per-domain pseudonym.
func TestGL19ConvertYieldsStablePseudonym(t *testing.T) {
	grp, mgr, err := groupsig.Setup(groupsig.GL19, nil, nil)
	require.NoError(t, err)
	grp, mgr, err = groupsig.Setup(groupsig.GL19, grp, mgr)
	require.NoError(t, err)

	g := groupsig.NewGML(groupsig.GL19)
	mem, err := groupsig.Join(groupsig.GL19, grp, mgr, g)
	require.NoError(t, err)

	bk, err := groupsig.NewBlindKey(groupsig.GL19)
	require.NoError(t, err)

	msg := []byte("m")
	sig1, err := groupsig.Sign(groupsig.GL19, mem, grp, msg, groupsig.SignOptions{})
	require.NoError(t, err)
	bsig1, err := groupsig.Blind(groupsig.GL19, sig1, grp, bk)
	require.NoError(t, err)
	csigs1, err := groupsig.Convert(groupsig.GL19, []scheme.Signature{bsig1}, grp, mgr)
	require.NoError(t, err)
	require.Len(t, csigs1, 1)
	nym1, err := groupsig.Unblind(groupsig.GL19, csigs1[0], bk, msg)
	require.NoError(t, err)

	sig2, err := groupsig.Sign(groupsig.GL19, mem, grp, msg, groupsig.SignOptions{})
	require.NoError(t, err)
	bsig2, err := groupsig.Blind(groupsig.GL19, sig2, grp, bk)
	require.NoError(t, err)
	csigs2, err := groupsig.Convert(groupsig.GL19, []scheme.Signature{bsig2}, grp, mgr)
	require.NoError(t, err)
	nym2, err := groupsig.Unblind(groupsig.GL19, csigs2[0], bk, msg)
	require.NoError(t, err)

	assert.Equal(t, nym1, nym2)
}

// TestDL21LinkAcrossOwnSignatures links three of one member's
// signatures and rejects a batch with a substituted signature.
func TestDL21LinkAcrossOwnSignatures(t *testing.T) {
	grp, mgr, err := groupsig.Setup(groupsig.DL21, nil, nil)
	require.NoError(t, err)

	memD, err := groupsig.Join(groupsig.DL21, grp, mgr, nil)
	require.NoError(t, err)
	memE, err := groupsig.Join(groupsig.DL21, grp, mgr, nil)
	require.NoError(t, err)

	scope := []byte("scope-S")
	msgs := [][]byte{[]byte("m1"), []byte("m2"), []byte("m3")}
	sigs := make([]scheme.Signature, 3)
	for i, m := range msgs {
		s, err := groupsig.Sign(groupsig.DL21, memD, grp, m, groupsig.SignOptions{Scope: scope})
		require.NoError(t, err)
		sigs[i] = s
	}

	linkMsg := []byte("link-request")
	proof, err := groupsig.Link(groupsig.DL21, grp, memD, linkMsg, sigs, msgs)
	require.NoError(t, err)

	ok, err := groupsig.VerifyLink(groupsig.DL21, proof, grp, linkMsg, sigs, msgs)
	require.NoError(t, err)
	assert.True(t, ok)

	badSig, err := groupsig.Sign(groupsig.DL21, memE, grp, msgs[1], groupsig.SignOptions{Scope: scope})
	require.NoError(t, err)
	tampered := append([]scheme.Signature(nil), sigs...)
	tampered[1] = badSig

	ok, err = groupsig.VerifyLink(groupsig.DL21, proof, grp, linkMsg, tampered, msgs)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestCrossSchemeRejection: passing a KLAP20 signature into gl19's
// Verify must fail as InvalidArgument.
func TestCrossSchemeRejection(t *testing.T) {
	klapGrp, klapMgr, err := groupsig.Setup(groupsig.KLAP20, nil, nil)
	require.NoError(t, err)
	klapGrp, klapMgr, err = groupsig.Setup(groupsig.KLAP20, klapGrp, klapMgr)
	require.NoError(t, err)
	klapMem, err := groupsig.Join(groupsig.KLAP20, klapGrp, klapMgr, groupsig.NewGML(groupsig.KLAP20))
	require.NoError(t, err)
	klapSig, err := groupsig.Sign(groupsig.KLAP20, klapMem, klapGrp, []byte("m"), groupsig.SignOptions{})
	require.NoError(t, err)

	glGrp, glMgr, err := groupsig.Setup(groupsig.GL19, nil, nil)
	require.NoError(t, err)
	glGrp, glMgr, err = groupsig.Setup(groupsig.GL19, glGrp, glMgr)
	require.NoError(t, err)

	_, err = groupsig.Verify(groupsig.GL19, klapSig, []byte("m"), glGrp)
	require.Error(t, err)
	_ = glMgr
}

func TestDescriptorsIncludeRegisteredSchemes(t *testing.T) {
	descs := groupsig.Descriptors()
	seen := map[scheme.Code]bool{}
	for _, d := range descs {
		seen[d.Code] = true
	}
	assert.True(t, seen[groupsig.BBS04])
	assert.True(t, seen[groupsig.KLAP20])
	assert.True(t, seen[groupsig.GL19])
	assert.True(t, seen[groupsig.DL21])
}

func TestExportImportGroupKeyRoundTrip(t *testing.T) {
	grp, _, err := groupsig.Setup(groupsig.BBS04, nil, nil)
	require.NoError(t, err)

	b, err := groupsig.Export(grp)
	require.NoError(t, err)

	grp2, err := groupsig.ImportGroupKey(b)
	require.NoError(t, err)
	assert.Equal(t, grp.Scheme(), grp2.Scheme())

	b2, err := grp2.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, b, b2)
}
