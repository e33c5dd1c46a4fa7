// Package curve is the L0 curve façade: BLS12-381 scalars, G1/G2/GT group
// elements, the bilinear pairing, hash-to-scalar, and canonical binary
// serialisation. Everything above this package treats these types as
// opaque values and never imports gnark-crypto directly.
package curve

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/zeebo/blake3"
)

// ErrShortBuffer is returned by UnmarshalBinary when the input is truncated.
var ErrShortBuffer = errors.New("curve: short buffer")

// Scalar is an element of Fr, the BLS12-381 scalar field.
type Scalar struct {
	v fr.Element
}

// RandomScalar samples a uniform element of Fr using rdr as entropy source.
// Pass nil to use the package CSPRNG (crypto/rand).
func RandomScalar(rdr io.Reader) (Scalar, error) {
	if rdr == nil {
		rdr = rand.Reader
	}
	var buf [64]byte
	if _, err := io.ReadFull(rdr, buf[:]); err != nil {
		return Scalar{}, fmt.Errorf("curve: sample scalar: %w", err)
	}
	// 64 uniform bytes reduced mod q leave negligible bias.
	var s Scalar
	s.v.SetBytes(buf[:])
	return s, nil
}

// ZeroScalar returns the additive identity of Fr.
func ZeroScalar() Scalar { return Scalar{} }

// ScalarFromUint64 embeds a small integer into Fr.
func ScalarFromUint64(x uint64) Scalar {
	var s Scalar
	s.v.SetUint64(x)
	return s
}

// ScalarFromBigInt reduces x modulo the Fr order.
func ScalarFromBigInt(x *big.Int) Scalar {
	var s Scalar
	s.v.SetBigInt(x)
	return s
}

func (s Scalar) Add(o Scalar) Scalar {
	var r Scalar
	r.v.Add(&s.v, &o.v)
	return r
}

func (s Scalar) Sub(o Scalar) Scalar {
	var r Scalar
	r.v.Sub(&s.v, &o.v)
	return r
}

func (s Scalar) Mul(o Scalar) Scalar {
	var r Scalar
	r.v.Mul(&s.v, &o.v)
	return r
}

func (s Scalar) Neg() Scalar {
	var r Scalar
	r.v.Neg(&s.v)
	return r
}

// Inverse returns s^-1. For a zero s it returns zero rather than failing;
// callers must check IsZero first when s could plausibly be zero
// (negligible probability for sampled scalars).
func (s Scalar) Inverse() Scalar {
	var r Scalar
	r.v.Inverse(&s.v)
	return r
}

func (s Scalar) IsZero() bool { return s.v.IsZero() }

func (s Scalar) Equal(o Scalar) bool { return s.v.Equal(&o.v) }

// BigInt returns the regular (non-Montgomery) big.Int representation.
func (s Scalar) BigInt() *big.Int {
	var x big.Int
	s.v.BigInt(&x)
	return &x
}

func (s Scalar) MarshalBinary() ([]byte, error) {
	b := s.v.Bytes()
	return b[:], nil
}

func (s *Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != fr.Bytes {
		return ErrShortBuffer
	}
	s.v.SetBytes(data)
	return nil
}

func (s Scalar) String() string { return s.v.String() }

// G1 is an affine point of the BLS12-381 G1 subgroup.
type G1 struct {
	p bls12381.G1Affine
}

// G1Generator returns the fixed base generator g1.
func G1Generator() G1 {
	_, _, g1, _ := bls12381.Generators()
	return G1{p: g1}
}

func (p G1) Add(o G1) G1 {
	var a, b bls12381.G1Jac
	a.FromAffine(&p.p)
	b.FromAffine(&o.p)
	a.AddAssign(&b)
	var out bls12381.G1Affine
	out.FromJacobian(&a)
	return G1{p: out}
}

func (p G1) Neg() G1 {
	var out bls12381.G1Affine
	out.Neg(&p.p)
	return G1{p: out}
}

func (p G1) Sub(o G1) G1 { return p.Add(o.Neg()) }

func (p G1) ScalarMult(s Scalar) G1 {
	var out bls12381.G1Affine
	out.ScalarMultiplication(&p.p, s.BigInt())
	return G1{p: out}
}

func (p G1) IsIdentity() bool { return p.p.IsInfinity() }

func (p G1) Equal(o G1) bool { return p.p.Equal(&o.p) }

func (p G1) MarshalBinary() ([]byte, error) {
	b := p.p.Bytes()
	return b[:], nil
}

func (p *G1) UnmarshalBinary(data []byte) error {
	if len(data) != bls12381.SizeOfG1AffineCompressed {
		return ErrShortBuffer
	}
	var buf [bls12381.SizeOfG1AffineCompressed]byte
	copy(buf[:], data)
	_, err := p.p.SetBytes(buf[:])
	if err != nil {
		return fmt.Errorf("curve: unmarshal G1: %w", err)
	}
	return nil
}

// HashToG1 maps arbitrary bytes to a uniform point of G1, under the
// given domain-separation tag. Used to derive per-scope pseudonym
// bases.
func HashToG1(msg, dst []byte) (G1, error) {
	p, err := bls12381.HashToG1(msg, dst)
	if err != nil {
		return G1{}, fmt.Errorf("curve: hash to G1: %w", err)
	}
	return G1{p: p}, nil
}

// G2 is an affine point of the BLS12-381 G2 subgroup.
type G2 struct {
	p bls12381.G2Affine
}

func G2Generator() G2 {
	_, _, _, g2 := bls12381.Generators()
	return G2{p: g2}
}

func (p G2) Add(o G2) G2 {
	var a, b bls12381.G2Jac
	a.FromAffine(&p.p)
	b.FromAffine(&o.p)
	a.AddAssign(&b)
	var out bls12381.G2Affine
	out.FromJacobian(&a)
	return G2{p: out}
}

func (p G2) Neg() G2 {
	var out bls12381.G2Affine
	out.Neg(&p.p)
	return G2{p: out}
}

func (p G2) Sub(o G2) G2 { return p.Add(o.Neg()) }

func (p G2) ScalarMult(s Scalar) G2 {
	var out bls12381.G2Affine
	out.ScalarMultiplication(&p.p, s.BigInt())
	return G2{p: out}
}

func (p G2) IsIdentity() bool { return p.p.IsInfinity() }

func (p G2) Equal(o G2) bool { return p.p.Equal(&o.p) }

func (p G2) MarshalBinary() ([]byte, error) {
	b := p.p.Bytes()
	return b[:], nil
}

func (p *G2) UnmarshalBinary(data []byte) error {
	if len(data) != bls12381.SizeOfG2AffineCompressed {
		return ErrShortBuffer
	}
	var buf [bls12381.SizeOfG2AffineCompressed]byte
	copy(buf[:], data)
	_, err := p.p.SetBytes(buf[:])
	if err != nil {
		return fmt.Errorf("curve: unmarshal G2: %w", err)
	}
	return nil
}

// GT is an element of the pairing target group.
type GT struct {
	v bls12381.GT
}

// Pair computes the product of pairings e(a[0],b[0])*e(a[1],b[1])*...,
// matching the multi-pairing form used throughout the SPK/credential
// equations (e.g. verifying A*(g1*h^y*g^x) against ipk in one call).
func Pair(a []G1, b []G2) (GT, error) {
	if len(a) != len(b) {
		return GT{}, fmt.Errorf("curve: mismatched pairing slice lengths %d/%d", len(a), len(b))
	}
	g1s := make([]bls12381.G1Affine, len(a))
	g2s := make([]bls12381.G2Affine, len(b))
	for i := range a {
		g1s[i] = a[i].p
		g2s[i] = b[i].p
	}
	v, err := bls12381.Pair(g1s, g2s)
	if err != nil {
		return GT{}, fmt.Errorf("curve: pairing: %w", err)
	}
	return GT{v: v}, nil
}

func (e GT) Mul(o GT) GT {
	var r GT
	r.v.Mul(&e.v, &o.v)
	return r
}

// Exp returns e^s. Negative scalars work through their mod-q
// representative, since every GT element used here has order dividing q.
func (e GT) Exp(s Scalar) GT {
	var r GT
	r.v.Exp(e.v, s.BigInt())
	return r
}

func (e GT) Equal(o GT) bool { return e.v.Equal(&o.v) }

func (e GT) IsOne() bool { return e.v.IsOne() }

func (e GT) MarshalBinary() ([]byte, error) {
	b := e.v.Bytes()
	return b[:], nil
}

// HashToScalar derives a Fiat-Shamir challenge in Fr from the
// length-prefixed concatenation of every transcript part. BLAKE3 (XOF)
// supplies uniform wide output reduced into Fr.
func HashToScalar(parts ...[]byte) Scalar {
	h := blake3.New()
	for _, part := range parts {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(part)))
		h.Write(lenBuf[:])
		h.Write(part)
	}
	digest := h.Digest()
	var wide [64]byte
	digest.Read(wide[:])
	var s Scalar
	s.v.SetBytes(wide[:])
	return s
}
