// Package spk implements the signature-proof-of-knowledge engine: two
// Fiat-Shamir non-interactive proof flavours over the BLS12-381
// groups, on which every scheme's proof component is built.
package spk

import (
	"fmt"

	"github.com/luxfi/groupsig/pkg/curve"
)

// Dlog is a proof of knowledge of x such that y = g^x, bound to a message.
type Dlog struct {
	C curve.Scalar
	S curve.Scalar
}

// ProveDlog forms the Schnorr commitment t = g^rnd from the caller-supplied
// randomiser, derives the challenge from the full transcript (g, y, t, msg),
// and returns (c, s).
func ProveDlog(g, y curve.G1, x curve.Scalar, msg []byte, rnd curve.Scalar) (Dlog, error) {
	t := g.ScalarMult(rnd)
	gb, _ := g.MarshalBinary()
	yb, _ := y.MarshalBinary()
	tb, _ := t.MarshalBinary()
	c := curve.HashToScalar(msg, gb, yb, tb)
	s := rnd.Add(c.Mul(x))
	return Dlog{C: c, S: s}, nil
}

// VerifyDlog recomputes t' = g^s * y^-c and checks the challenge.
func VerifyDlog(g, y curve.G1, msg []byte, pi Dlog) bool {
	tPrime := g.ScalarMult(pi.S).Add(y.ScalarMult(pi.C.Neg()))
	gb, _ := g.MarshalBinary()
	yb, _ := y.MarshalBinary()
	tb, _ := tPrime.MarshalBinary()
	c := curve.HashToScalar(msg, gb, yb, tb)
	return c.Equal(pi.C)
}

// DlogG2 is the G2 analogue of Dlog, used where the witness base lives in
// G2 (e.g. the issuer public key ipk = g2^isk).
type DlogG2 struct {
	C curve.Scalar
	S curve.Scalar
}

func ProveDlogG2(g, y curve.G2, x curve.Scalar, msg []byte, rnd curve.Scalar) DlogG2 {
	t := g.ScalarMult(rnd)
	gb, _ := g.MarshalBinary()
	yb, _ := y.MarshalBinary()
	tb, _ := t.MarshalBinary()
	c := curve.HashToScalar(msg, gb, yb, tb)
	s := rnd.Add(c.Mul(x))
	return DlogG2{C: c, S: s}
}

func VerifyDlogG2(g, y curve.G2, msg []byte, pi DlogG2) bool {
	tPrime := g.ScalarMult(pi.S).Add(y.ScalarMult(pi.C.Neg()))
	gb, _ := g.MarshalBinary()
	yb, _ := y.MarshalBinary()
	tb, _ := tPrime.MarshalBinary()
	c := curve.HashToScalar(msg, gb, yb, tb)
	return c.Equal(pi.C)
}

// DlogGT is the target-group analogue of Dlog, used where the relation
// lives in GT after pairing (e.g. proving a Pointcheval-Sanders
// credential on a hidden scalar: e(s2,g~)/e(s1,X~) = e(s1,Y~)^sk).
type DlogGT struct {
	C curve.Scalar
	S curve.Scalar
}

func ProveDlogGT(base, y curve.GT, x curve.Scalar, msg []byte, rnd curve.Scalar) DlogGT {
	t := base.Exp(rnd)
	bb, _ := base.MarshalBinary()
	yb, _ := y.MarshalBinary()
	tb, _ := t.MarshalBinary()
	c := curve.HashToScalar(msg, bb, yb, tb)
	s := rnd.Add(c.Mul(x))
	return DlogGT{C: c, S: s}
}

func VerifyDlogGT(base, y curve.GT, msg []byte, pi DlogGT) bool {
	tPrime := base.Exp(pi.S).Mul(y.Exp(pi.C.Neg()))
	bb, _ := base.MarshalBinary()
	yb, _ := y.MarshalBinary()
	tb, _ := tPrime.MarshalBinary()
	c := curve.HashToScalar(msg, bb, yb, tb)
	return c.Equal(pi.C)
}

// Equation is one equation y = Π g_i^x_i of an SPK-REP conjunction. Bases
// and the witness indices they consume are given in lock-step; WitnessIdx
// lets several equations share a witness (e.g. the same y appears in both
// the credential relation and a pseudonym relation).
type Equation struct {
	Y          curve.G1
	Bases      []curve.G1
	WitnessIdx []int
}

// Rep is a non-interactive proof of knowledge of witnesses x_0..x_{n-1}
// satisfying every Equation in a conjunction.
type Rep struct {
	C curve.Scalar
	S []curve.Scalar
}

// ProveRep builds the conjunction proof. witnesses[i] is x_i; rnds[i] is
// the randomiser r_i sampled for x_i (callers supply these so the same
// witnesses/randomisers can be reused across equations, and so tests
// can pass deterministic values).
func ProveRep(eqs []Equation, witnesses []curve.Scalar, rnds []curve.Scalar, msg []byte) (Rep, error) {
	if len(witnesses) != len(rnds) {
		return Rep{}, fmt.Errorf("spk: witnesses/randomisers length mismatch")
	}
	ts := make([]curve.G1, len(eqs))
	for j, eq := range eqs {
		t := commit(eq.Bases, eq.WitnessIdx, rnds)
		ts[j] = t
	}
	c := challenge(eqs, ts, msg)
	s := make([]curve.Scalar, len(witnesses))
	for i := range witnesses {
		s[i] = rnds[i].Add(c.Mul(witnesses[i]))
	}
	return Rep{C: c, S: s}, nil
}

// VerifyRep recomputes every t_j' = (Π g_ji^s_i) * y_j^-c and checks the
// challenge against the full equation set.
func VerifyRep(eqs []Equation, msg []byte, pi Rep) bool {
	ts := make([]curve.G1, len(eqs))
	for j, eq := range eqs {
		t := commit(eq.Bases, eq.WitnessIdx, pi.S)
		t = t.Add(eq.Y.ScalarMult(pi.C.Neg()))
		ts[j] = t
	}
	c := challenge(eqs, ts, msg)
	return c.Equal(pi.C)
}

func commit(bases []curve.G1, idx []int, scalars []curve.Scalar) curve.G1 {
	acc := bases[0].ScalarMult(scalars[idx[0]])
	for i := 1; i < len(bases); i++ {
		acc = acc.Add(bases[i].ScalarMult(scalars[idx[i]]))
	}
	return acc
}

func challenge(eqs []Equation, ts []curve.G1, msg []byte) curve.Scalar {
	parts := [][]byte{msg}
	for _, eq := range eqs {
		yb, _ := eq.Y.MarshalBinary()
		parts = append(parts, yb)
		for _, b := range eq.Bases {
			bb, _ := b.MarshalBinary()
			parts = append(parts, bb)
		}
	}
	for _, t := range ts {
		tb, _ := t.MarshalBinary()
		parts = append(parts, tb)
	}
	return curve.HashToScalar(parts...)
}
