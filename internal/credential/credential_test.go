package credential_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/groupsig/internal/credential"
	"github.com/luxfi/groupsig/pkg/curve"
	"github.com/luxfi/groupsig/pkg/spk"
)

func TestIssueAndVerifyCredential(t *testing.T) {
	grp, mgr, err := credential.GenerateGroupKey(rand.Reader)
	require.NoError(t, err)

	y, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	f := credential.CommitY(grp, y)

	cred, err := credential.Issue(mgr, grp, f, rand.Reader)
	require.NoError(t, err)

	ok, err := credential.VerifyCredential(grp, cred, y)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyCredentialRejectsWrongY(t *testing.T) {
	grp, mgr, err := credential.GenerateGroupKey(rand.Reader)
	require.NoError(t, err)

	y, _ := curve.RandomScalar(rand.Reader)
	f := credential.CommitY(grp, y)
	cred, err := credential.Issue(mgr, grp, f, rand.Reader)
	require.NoError(t, err)

	wrongY, _ := curve.RandomScalar(rand.Reader)
	ok, err := credential.VerifyCredential(grp, cred, wrongY)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRandomizeProducesVerifiableSignatureProof(t *testing.T) {
	grp, mgr, err := credential.GenerateGroupKey(rand.Reader)
	require.NoError(t, err)

	y, _ := curve.RandomScalar(rand.Reader)
	f := credential.CommitY(grp, y)
	cred, err := credential.Issue(mgr, grp, f, rand.Reader)
	require.NoError(t, err)

	r, x, b, yPrime, err := credential.Randomize(grp, cred, y, rand.Reader)
	require.NoError(t, err)

	ok, err := credential.VerifyPairing(grp, r)
	require.NoError(t, err)
	assert.True(t, ok, "pairing relation must hold for an honestly issued credential")

	eqs := credential.Equations(r, grp.H, grp.H1)
	rx, _ := curve.RandomScalar(rand.Reader)
	rb, _ := curve.RandomScalar(rand.Reader)
	ry, _ := curve.RandomScalar(rand.Reader)
	msg := []byte("hello group signature")

	pi, err := spk.ProveRep(eqs, []curve.Scalar{x, b, yPrime}, []curve.Scalar{rx, rb, ry}, msg)
	require.NoError(t, err)
	assert.True(t, spk.VerifyRep(eqs, msg, pi))
}

func TestRandomizeRejectsTamperedProof(t *testing.T) {
	grp, mgr, err := credential.GenerateGroupKey(rand.Reader)
	require.NoError(t, err)

	y, _ := curve.RandomScalar(rand.Reader)
	f := credential.CommitY(grp, y)
	cred, err := credential.Issue(mgr, grp, f, rand.Reader)
	require.NoError(t, err)

	r, x, b, yPrime, err := credential.Randomize(grp, cred, y, rand.Reader)
	require.NoError(t, err)

	eqs := credential.Equations(r, grp.H, grp.H1)
	rx, _ := curve.RandomScalar(rand.Reader)
	rb, _ := curve.RandomScalar(rand.Reader)
	ry, _ := curve.RandomScalar(rand.Reader)
	msg := []byte("hello group signature")

	pi, err := spk.ProveRep(eqs, []curve.Scalar{x, b, yPrime}, []curve.Scalar{rx, rb, ry}, msg)
	require.NoError(t, err)

	pi.S[0] = pi.S[0].Add(curve.ScalarFromUint64(1))
	assert.False(t, spk.VerifyRep(eqs, msg, pi))
}
