// Package ps16 implements the PS16 group signature on Pointcheval-
// Sanders credentials. Unlike the bbs04 family, the issuer holds a
// two-scalar key (x, y) and a member's credential is a PS signature
// (s1, s2) = (g^u, g^(u(x+y*sk))) on the member secret sk; signing
// rerandomises the pair and proves knowledge of sk in the target group
// via e(s2, g~)/e(s1, X~) = e(s1, Y~)^sk. The membership check
// e(s1, X~ * Y~^sk) == e(s2, g~) has the same shape as the bbs04
// family's pairing equation, but the credential construction and
// rerandomisation are PS's own.
package ps16

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/luxfi/groupsig/pkg/curve"
	"github.com/luxfi/groupsig/pkg/gserr"
	"github.com/luxfi/groupsig/pkg/scheme"
	"github.com/luxfi/groupsig/pkg/spk"
)

func init() {
	scheme.Register(scheme.PS16, Ops{})
}

func Descriptor() scheme.Descriptor {
	return scheme.Descriptor{
		Code:           scheme.PS16,
		Name:           "PS16",
		HasGML:         true,
		HasCRL:         false,
		UsesPairing:    true,
		JoinStart:      0,
		JoinSeq:        3,
		IssuerKeyIndex: 0,
	}
}

// GroupKey holds the G1 base g, the G2 generator g~, and the issuer
// public key (X~, Y~) = (g~^x, g~^y).
type GroupKey struct {
	G  curve.G1
	GG curve.G2
	X  curve.G2
	Y  curve.G2
}

func (g GroupKey) Scheme() scheme.Code { return scheme.PS16 }

func (g GroupKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.PS16)}
	buf = append(buf, mustBytes(g.G.MarshalBinary())...)
	for _, p := range []curve.G2{g.GG, g.X, g.Y} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	return buf, nil
}

// ManagerKey is the issuer's PS signing key (x, y).
type ManagerKey struct {
	XS curve.Scalar
	YS curve.Scalar
}

func (m ManagerKey) Scheme() scheme.Code { return scheme.PS16 }

func (m ManagerKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.PS16)}
	buf = appendScalar(buf, m.XS)
	buf = appendScalar(buf, m.YS)
	return buf, nil
}

// MemberKey holds the member secret sk and, once Join finishes, the PS
// credential (s1, s2) on it.
type MemberKey struct {
	SK       curve.Scalar
	HaveSK   bool
	S1, S2   curve.G1
	HaveCred bool
}

func (m MemberKey) Scheme() scheme.Code { return scheme.PS16 }

func (m MemberKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.PS16)}
	buf = appendScalar(buf, m.SK)
	buf = append(buf, mustBytes(m.S1.MarshalBinary())...)
	buf = append(buf, mustBytes(m.S2.MarshalBinary())...)
	return buf, nil
}

// Signature is the rerandomised credential pair plus the target-group
// SPK of sk binding it to the message.
type Signature struct {
	S1, S2 curve.G1
	Pi     spk.DlogGT
}

func (s Signature) Scheme() scheme.Code { return scheme.PS16 }

func (s Signature) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.PS16)}
	buf = append(buf, mustBytes(s.S1.MarshalBinary())...)
	buf = append(buf, mustBytes(s.S2.MarshalBinary())...)
	buf = appendScalar(buf, s.Pi.C)
	buf = appendScalar(buf, s.Pi.S)
	return buf, nil
}

// Proof is a raw tagged proof container. ps16 has no Opener/Linker
// capability, so nothing in ps16 produces one, and ImportProof returns
// UnsupportedScheme instead of decoding one.
type Proof struct{ Raw []byte }

func (p Proof) Scheme() scheme.Code            { return scheme.PS16 }
func (p Proof) MarshalBinary() ([]byte, error) { return append([]byte{byte(scheme.PS16)}, p.Raw...), nil }

// Ops implements scheme.Ops for PS16.
type Ops struct{}

func (Ops) Descriptor() scheme.Descriptor { return Descriptor() }

func (Ops) Setup(grpIn scheme.GroupKey, mgrIn scheme.ManagerKey) (scheme.GroupKey, scheme.ManagerKey, error) {
	g, err := curve.HashToG1([]byte("groupsig/ps16/g"), []byte("groupsig-dst"))
	if err != nil {
		return nil, nil, gserr.New(gserr.Internal, "ps16.Setup", err)
	}
	x, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, nil, gserr.New(gserr.Internal, "ps16.Setup", err)
	}
	y, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, nil, gserr.New(gserr.Internal, "ps16.Setup", err)
	}
	gg := curve.G2Generator()
	grp := GroupKey{G: g, GG: gg, X: gg.ScalarMult(x), Y: gg.ScalarMult(y)}
	return grp, ManagerKey{XS: x, YS: y}, nil
}

// verifyCredential checks the PS membership equation
// e(s1, X~ * Y~^sk) == e(s2, g~).
func verifyCredential(grp GroupKey, s1, s2 curve.G1, sk curve.Scalar) (bool, error) {
	if s1.IsIdentity() {
		return false, nil
	}
	rhsG2 := grp.X.Add(grp.Y.ScalarMult(sk))
	lhs, err := curve.Pair([]curve.G1{s1}, []curve.G2{rhsG2})
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "ps16.verifyCredential", err)
	}
	rhs, err := curve.Pair([]curve.G1{s2}, []curve.G2{grp.GG})
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "ps16.verifyCredential", err)
	}
	return lhs.Equal(rhs), nil
}

// JoinMember drives the member side of the three-message Join
// exchange: seq0 receives the Issuer's nonce and replies with tau=g^sk
// plus an SPK-DLOG; seq2 receives the issued PS credential, checks the
// membership equation, and finalises.
func (Ops) JoinMember(memIn scheme.MemberKey, seq int, in []byte, grpIn scheme.GroupKey) ([]byte, scheme.MemberKey, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, nil, false, gserr.New(gserr.InvalidArgument, "ps16.JoinMember", fmt.Errorf("wrong group key type"))
	}
	mem, _ := memIn.(MemberKey)

	switch seq {
	case 0:
		sk, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "ps16.JoinMember", err)
		}
		tau := grp.G.ScalarMult(sk)
		r, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "ps16.JoinMember", err)
		}
		pi, err := spk.ProveDlog(grp.G, tau, sk, in, r)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "ps16.JoinMember", err)
		}
		out := marshalJoin1(in, tau, pi)
		mem.SK, mem.HaveSK = sk, true
		return out, mem, false, nil

	case 2:
		if !mem.HaveSK {
			return nil, nil, false, gserr.New(gserr.ProtocolFail, "ps16.JoinMember", fmt.Errorf("member has no pending sk"))
		}
		s1, s2, err := unmarshalJoin2(in)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Serialisation, "ps16.JoinMember", err)
		}
		ok, err := verifyCredential(grp, s1, s2, mem.SK)
		if err != nil {
			return nil, nil, false, err
		}
		if !ok {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "ps16.JoinMember", fmt.Errorf("issued credential fails pairing check"))
		}
		mem.S1, mem.S2, mem.HaveCred = s1, s2, true
		return nil, mem, true, nil
	}
	return nil, nil, false, gserr.New(gserr.ProtocolFail, "ps16.JoinMember", fmt.Errorf("unexpected seq %d", seq))
}

// JoinManager drives the Issuer side: seq0 emits the nonce, seq1
// verifies the member's SPK-DLOG and issues the PS credential
// (s1, s2) = (g^u, (g^x * tau^y)^u), appending a GML entry keyed on
// tau.
func (Ops) JoinManager(mgrIn scheme.ManagerKey, seq int, in []byte, grpIn scheme.GroupKey, appendGML func(scheme.GMLEntry) (uint64, error)) ([]byte, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "ps16.JoinManager", fmt.Errorf("wrong group key type"))
	}
	mgr, ok := mgrIn.(ManagerKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "ps16.JoinManager", fmt.Errorf("wrong manager key type"))
	}

	switch seq {
	case 0:
		n, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.Internal, "ps16.JoinManager", err)
		}
		return mustBytes(n.MarshalBinary()), false, nil

	case 1:
		n, tau, pi, err := unmarshalJoin1(in)
		if err != nil {
			return nil, false, gserr.New(gserr.Serialisation, "ps16.JoinManager", err)
		}
		if !spk.VerifyDlog(grp.G, tau, n, pi) {
			return nil, false, gserr.New(gserr.CryptoFail, "ps16.JoinManager", fmt.Errorf("join SPK-DLOG rejected"))
		}
		u, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.Internal, "ps16.JoinManager", err)
		}
		if u.IsZero() {
			return nil, false, gserr.New(gserr.Internal, "ps16.JoinManager", fmt.Errorf("sampled zero randomiser, resample"))
		}
		s1 := grp.G.ScalarMult(u)
		s2 := grp.G.ScalarMult(mgr.XS).Add(tau.ScalarMult(mgr.YS)).ScalarMult(u)
		if appendGML != nil {
			tb, _ := tau.MarshalBinary()
			if _, err := appendGML(scheme.GMLEntry{SchemeCode: scheme.PS16, Trapdoor: tb}); err != nil {
				return nil, false, gserr.New(gserr.Internal, "ps16.JoinManager", err)
			}
		}
		return marshalJoin2(s1, s2), true, nil
	}
	return nil, true, nil
}

// Sign rerandomises the PS credential with a fresh t and proves
// knowledge of sk in GT: with B = e(s1', Y~) and
// V = e(s2', g~) * e(s1', X~)^-1, the credential equation gives
// V = B^sk, so an SPK-DLOG over GT bound to msg suffices.
func (Ops) Sign(memIn scheme.MemberKey, grpIn scheme.GroupKey, msg []byte, opts scheme.SignOptions) (scheme.Signature, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, gserr.New(gserr.InvalidArgument, "ps16.Sign", fmt.Errorf("wrong group key type"))
	}
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveCred {
		return nil, gserr.New(gserr.InvalidArgument, "ps16.Sign", fmt.Errorf("member has no credential"))
	}

	t, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.Internal, "ps16.Sign", err)
	}
	if t.IsZero() {
		return nil, gserr.New(gserr.Internal, "ps16.Sign", fmt.Errorf("sampled zero randomiser, resample"))
	}
	s1 := mem.S1.ScalarMult(t)
	s2 := mem.S2.ScalarMult(t)

	base, v, err := proofRelation(grp, s1, s2)
	if err != nil {
		return nil, err
	}
	r, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.Internal, "ps16.Sign", err)
	}
	pi := spk.ProveDlogGT(base, v, mem.SK, msg, r)
	return Signature{S1: s1, S2: s2, Pi: pi}, nil
}

// proofRelation computes the GT base/value pair (B, V) of the signing
// relation V = B^sk for a rerandomised credential.
func proofRelation(grp GroupKey, s1, s2 curve.G1) (curve.GT, curve.GT, error) {
	base, err := curve.Pair([]curve.G1{s1}, []curve.G2{grp.Y})
	if err != nil {
		return curve.GT{}, curve.GT{}, gserr.New(gserr.CryptoFail, "ps16.proofRelation", err)
	}
	// e(s2, g~) * e(s1, X~)^-1 as one multi-pairing.
	v, err := curve.Pair([]curve.G1{s2, s1.Neg()}, []curve.G2{grp.GG, grp.X})
	if err != nil {
		return curve.GT{}, curve.GT{}, gserr.New(gserr.CryptoFail, "ps16.proofRelation", err)
	}
	return base, v, nil
}

func (Ops) Verify(sigIn scheme.Signature, msg []byte, grpIn scheme.GroupKey) (bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "ps16.Verify", fmt.Errorf("wrong group key type"))
	}
	sig, ok := sigIn.(Signature)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "ps16.Verify", fmt.Errorf("wrong signature type"))
	}
	if sig.S1.IsIdentity() {
		return false, gserr.New(gserr.CryptoFail, "ps16.Verify", fmt.Errorf("s1 is the identity"))
	}
	base, v, err := proofRelation(grp, sig.S1, sig.S2)
	if err != nil {
		return false, err
	}
	return spk.VerifyDlogGT(base, v, msg, sig.Pi), nil
}

// VerifyBatch verifies each signature independently; PS16 has no
// shared-pairing batching optimisation (contrast klap20.VerifyBatch).
func (o Ops) VerifyBatch(sigs []scheme.Signature, msgs [][]byte, grpIn scheme.GroupKey) (bool, error) {
	if len(sigs) != len(msgs) {
		return false, gserr.New(gserr.InvalidArgument, "ps16.VerifyBatch", fmt.Errorf("sigs/msgs length mismatch"))
	}
	for i := range sigs {
		ok, err := o.Verify(sigs[i], msgs[i], grpIn)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (Ops) ImportGroupKey(b []byte) (scheme.GroupKey, error) {
	if len(b) < 1+g1Size+3*g2Size {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportGroupKey", fmt.Errorf("short buffer"))
	}
	off := 1
	var g curve.G1
	if err := g.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportGroupKey", err)
	}
	off += g1Size
	var gg, x, y curve.G2
	for _, p := range []*curve.G2{&gg, &x, &y} {
		if err := p.UnmarshalBinary(b[off : off+g2Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "ps16.ImportGroupKey", err)
		}
		off += g2Size
	}
	return GroupKey{G: g, GG: gg, X: x, Y: y}, nil
}

func (Ops) ImportManagerKey(b []byte) (scheme.ManagerKey, error) {
	x, off, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportManagerKey", err)
	}
	y, _, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportManagerKey", err)
	}
	return ManagerKey{XS: x, YS: y}, nil
}

func (Ops) ImportMemberKey(b []byte) (scheme.MemberKey, error) {
	sk, off, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportMemberKey", err)
	}
	if off+2*g1Size > len(b) {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportMemberKey", fmt.Errorf("short buffer"))
	}
	var s1, s2 curve.G1
	if err := s1.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportMemberKey", err)
	}
	off += g1Size
	if err := s2.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportMemberKey", err)
	}
	return MemberKey{SK: sk, HaveSK: true, S1: s1, S2: s2, HaveCred: true}, nil
}

func (Ops) ImportSignature(b []byte) (scheme.Signature, error) {
	if len(b) < 1+2*g1Size+2*fr32 {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportSignature", fmt.Errorf("short buffer"))
	}
	off := 1
	var s1, s2 curve.G1
	if err := s1.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportSignature", err)
	}
	off += g1Size
	if err := s2.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportSignature", err)
	}
	off += g1Size
	c, off, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportSignature", err)
	}
	s, _, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "ps16.ImportSignature", err)
	}
	return Signature{S1: s1, S2: s2, Pi: spk.DlogGT{C: c, S: s}}, nil
}

func (Ops) ImportProof(b []byte) (scheme.Proof, error) {
	return nil, gserr.New(gserr.UnsupportedScheme, "ps16.ImportProof", fmt.Errorf("PS16 has no standalone proof kind"))
}

const fr32 = 32
const g1Size = 48
const g2Size = 96

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendScalar(buf []byte, s curve.Scalar) []byte {
	return append(buf, mustBytes(s.MarshalBinary())...)
}

func readScalar(b []byte, off int) (curve.Scalar, int, error) {
	if off+fr32 > len(b) {
		return curve.Scalar{}, off, fmt.Errorf("short buffer reading scalar")
	}
	var s curve.Scalar
	if err := s.UnmarshalBinary(b[off : off+fr32]); err != nil {
		return curve.Scalar{}, off, err
	}
	return s, off + fr32, nil
}

func mustBytes(b []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return b
}

// marshalJoin1 / unmarshalJoin1 encode the Mem→Mgr seq=1 message
// (tau, π, n'): the member echoes the Issuer's nonce so the Issuer can
// rebuild the transcript the SPK-DLOG was bound to.
func marshalJoin1(n []byte, tau curve.G1, pi spk.Dlog) []byte {
	buf := appendUint32(nil, uint32(len(n)))
	buf = append(buf, n...)
	buf = append(buf, mustBytes(tau.MarshalBinary())...)
	buf = appendScalar(buf, pi.C)
	buf = appendScalar(buf, pi.S)
	return buf
}

func unmarshalJoin1(b []byte) ([]byte, curve.G1, spk.Dlog, error) {
	if len(b) < 4 {
		return nil, curve.G1{}, spk.Dlog{}, fmt.Errorf("short join1 message")
	}
	nLen := int(binary.BigEndian.Uint32(b[:4]))
	off := 4
	if off+nLen+g1Size+2*fr32 > len(b) {
		return nil, curve.G1{}, spk.Dlog{}, fmt.Errorf("short join1 message")
	}
	n := b[off : off+nLen]
	off += nLen
	var tau curve.G1
	if err := tau.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, curve.G1{}, spk.Dlog{}, err
	}
	off += g1Size
	c, off, err := readScalar(b, off)
	if err != nil {
		return nil, curve.G1{}, spk.Dlog{}, err
	}
	s, _, err := readScalar(b, off)
	if err != nil {
		return nil, curve.G1{}, spk.Dlog{}, err
	}
	return n, tau, spk.Dlog{C: c, S: s}, nil
}

// marshalJoin2 / unmarshalJoin2 encode the Mgr→Mem seq=2 message
// (s1, s2).
func marshalJoin2(s1, s2 curve.G1) []byte {
	buf := mustBytes(s1.MarshalBinary())
	buf = append(buf, mustBytes(s2.MarshalBinary())...)
	return buf
}

func unmarshalJoin2(b []byte) (curve.G1, curve.G1, error) {
	if len(b) < 2*g1Size {
		return curve.G1{}, curve.G1{}, fmt.Errorf("short join2 message")
	}
	var s1, s2 curve.G1
	if err := s1.UnmarshalBinary(b[:g1Size]); err != nil {
		return curve.G1{}, curve.G1{}, err
	}
	if err := s2.UnmarshalBinary(b[g1Size : 2*g1Size]); err != nil {
		return curve.G1{}, curve.G1{}, err
	}
	return s1, s2, nil
}
