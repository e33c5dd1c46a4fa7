package spk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/groupsig/pkg/curve"
	"github.com/luxfi/groupsig/pkg/spk"
)

func TestDlogRoundTrip(t *testing.T) {
	g := curve.G1Generator()
	x, err := curve.RandomScalar(nil)
	require.NoError(t, err)
	y := g.ScalarMult(x)
	rnd, err := curve.RandomScalar(nil)
	require.NoError(t, err)
	msg := []byte("hello")

	pi, err := spk.ProveDlog(g, y, x, msg, rnd)
	require.NoError(t, err)
	assert.True(t, spk.VerifyDlog(g, y, msg, pi))
	assert.False(t, spk.VerifyDlog(g, y, []byte("tampered"), pi))
}

func TestDlogRejectsWrongWitness(t *testing.T) {
	g := curve.G1Generator()
	x, _ := curve.RandomScalar(nil)
	other, _ := curve.RandomScalar(nil)
	y := g.ScalarMult(x)
	rnd, _ := curve.RandomScalar(nil)
	msg := []byte("m")

	pi, err := spk.ProveDlog(g, y, other, msg, rnd)
	require.NoError(t, err)
	assert.False(t, spk.VerifyDlog(g, y, msg, pi))
}

func TestDlogGTRoundTrip(t *testing.T) {
	g1 := curve.G1Generator()
	g2 := curve.G2Generator()
	base, err := curve.Pair([]curve.G1{g1}, []curve.G2{g2})
	require.NoError(t, err)

	x, _ := curve.RandomScalar(nil)
	y := base.Exp(x)
	rnd, _ := curve.RandomScalar(nil)
	msg := []byte("gt relation")

	pi := spk.ProveDlogGT(base, y, x, msg, rnd)
	assert.True(t, spk.VerifyDlogGT(base, y, msg, pi))
	assert.False(t, spk.VerifyDlogGT(base, y, []byte("tampered"), pi))

	other, _ := curve.RandomScalar(nil)
	pi2 := spk.ProveDlogGT(base, y, other, msg, rnd)
	assert.False(t, spk.VerifyDlogGT(base, y, msg, pi2))
}

func TestRepConjunction(t *testing.T) {
	g1 := curve.G1Generator()
	h := curve.G1Generator().ScalarMult(curve.ScalarFromUint64(7))

	x, _ := curve.RandomScalar(nil)
	y, _ := curve.RandomScalar(nil)

	// Two equations sharing witness x: Y0 = g1^x, Y1 = g1^x * h^y.
	y0 := g1.ScalarMult(x)
	y1 := g1.ScalarMult(x).Add(h.ScalarMult(y))

	eqs := []spk.Equation{
		{Y: y0, Bases: []curve.G1{g1}, WitnessIdx: []int{0}},
		{Y: y1, Bases: []curve.G1{g1, h}, WitnessIdx: []int{0, 1}},
	}

	rx, _ := curve.RandomScalar(nil)
	ry, _ := curve.RandomScalar(nil)
	msg := []byte("bind-me")

	pi, err := spk.ProveRep(eqs, []curve.Scalar{x, y}, []curve.Scalar{rx, ry}, msg)
	require.NoError(t, err)
	assert.True(t, spk.VerifyRep(eqs, msg, pi))

	// Adding one to the first response scalar must invalidate the proof.
	tampered := pi
	tampered.S = append([]curve.Scalar{}, pi.S...)
	tampered.S[0] = tampered.S[0].Add(curve.ScalarFromUint64(1))
	assert.False(t, spk.VerifyRep(eqs, msg, tampered))
}
