// Package bbs04 implements the foundational BBS04-style group
// signature: setup, the interactive Join protocol, and sign/verify
// built directly on internal/credential and pkg/spk. No other scheme
// package imports it; klap20 and gl19 share its credential machinery
// through internal/credential.
package bbs04

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/luxfi/groupsig/internal/credential"
	"github.com/luxfi/groupsig/pkg/curve"
	"github.com/luxfi/groupsig/pkg/gserr"
	"github.com/luxfi/groupsig/pkg/scheme"
	"github.com/luxfi/groupsig/pkg/spk"
)

func init() {
	scheme.Register(scheme.BBS04, Ops{})
}

// Descriptor returns BBS04's scheme descriptor; each other scheme
// package defines its own.
func Descriptor() scheme.Descriptor {
	return scheme.Descriptor{
		Code:           scheme.BBS04,
		Name:           "BBS04",
		HasGML:         true,
		HasCRL:         false,
		UsesPairing:    true,
		JoinStart:      0,
		JoinSeq:        3,
		IssuerKeyIndex: 0,
	}
}

// GroupKey wraps the shared credential group key.
type GroupKey struct {
	credential.GroupKey
}

func (g GroupKey) Scheme() scheme.Code { return scheme.BBS04 }

func (g GroupKey) MarshalBinary() ([]byte, error) {
	return marshalPoints(g.G1, g.H, g.H1)(g.G2, g.IPK)
}

// ManagerKey wraps the Issuer secret.
type ManagerKey struct {
	credential.ManagerKey
}

func (m ManagerKey) Scheme() scheme.Code { return scheme.BBS04 }

func (m ManagerKey) MarshalBinary() ([]byte, error) {
	return append([]byte{byte(scheme.BBS04)}, mustBytes(m.ISK.MarshalBinary())...), nil
}

// MemberKey holds the member's secret y and, once Join finishes, the
// issued credential.
type MemberKey struct {
	Y        curve.Scalar
	HaveY    bool
	Cred     credential.Credential
	HaveCred bool
}

func (m MemberKey) Scheme() scheme.Code { return scheme.BBS04 }

func (m MemberKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.BBS04)}
	buf = append(buf, mustBytes(m.Y.MarshalBinary())...)
	buf = append(buf, mustBytes(m.Cred.A.MarshalBinary())...)
	buf = append(buf, mustBytes(m.Cred.X.MarshalBinary())...)
	return buf, nil
}

// Signature is the randomised credential plus the binding SPK-REP.
type Signature struct {
	R  credential.Randomized
	Pi spk.Rep
}

func (s Signature) Scheme() scheme.Code { return scheme.BBS04 }

func (s Signature) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.BBS04)}
	for _, p := range []curve.G1{s.R.AHat, s.R.ATilde, s.R.D, s.R.C} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	buf = appendScalar(buf, s.Pi.C)
	buf = appendUint32(buf, uint32(len(s.Pi.S)))
	for _, sc := range s.Pi.S {
		buf = appendScalar(buf, sc)
	}
	return buf, nil
}

// Proof is unused by bbs04 itself (no Opener/Linker capability) but is
// required to satisfy scheme.Ops.ImportProof.
type Proof struct{ Raw []byte }

func (p Proof) Scheme() scheme.Code            { return scheme.BBS04 }
func (p Proof) MarshalBinary() ([]byte, error) { return append([]byte{byte(scheme.BBS04)}, p.Raw...), nil }

// Ops implements scheme.Ops for BBS04.
type Ops struct{}

func (Ops) Descriptor() scheme.Descriptor { return Descriptor() }

func (Ops) Setup(grpIn scheme.GroupKey, mgrIn scheme.ManagerKey) (scheme.GroupKey, scheme.ManagerKey, error) {
	grp, mgr, err := credential.GenerateGroupKey(rand.Reader)
	if err != nil {
		return nil, nil, gserr.New(gserr.CryptoFail, "bbs04.Setup", err)
	}
	return GroupKey{grp}, ManagerKey{mgr}, nil
}

// JoinMember drives the member side of the three-message Join
// exchange: seq0 receives the Issuer's nonce and replies with F=h^y
// plus an SPK-DLOG; seq2 receives the issued credential and finalises.
func (Ops) JoinMember(memIn scheme.MemberKey, seq int, in []byte, grpIn scheme.GroupKey) ([]byte, scheme.MemberKey, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, nil, false, gserr.New(gserr.InvalidArgument, "bbs04.JoinMember", fmt.Errorf("wrong group key type"))
	}
	mem, _ := memIn.(MemberKey)

	switch seq {
	case 0:
		y, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "bbs04.JoinMember", err)
		}
		f := credential.CommitY(grp.GroupKey, y)
		r, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "bbs04.JoinMember", err)
		}
		pi, err := spk.ProveDlog(grp.H, f, y, in, r)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "bbs04.JoinMember", err)
		}
		out := marshalJoin1(in, f, pi)
		mem.Y, mem.HaveY = y, true
		return out, mem, false, nil

	case 2:
		if !mem.HaveY {
			return nil, nil, false, gserr.New(gserr.ProtocolFail, "bbs04.JoinMember", fmt.Errorf("member has no pending y"))
		}
		a, x, err := unmarshalJoin2(in)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Serialisation, "bbs04.JoinMember", err)
		}
		cred := credential.Credential{A: a, X: x}
		ok, err := credential.VerifyCredential(grp.GroupKey, cred, mem.Y)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "bbs04.JoinMember", err)
		}
		if !ok {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "bbs04.JoinMember", fmt.Errorf("issued credential fails pairing check"))
		}
		mem.Cred, mem.HaveCred = cred, true
		return nil, mem, true, nil
	}
	return nil, nil, false, gserr.New(gserr.ProtocolFail, "bbs04.JoinMember", fmt.Errorf("unexpected seq %d", seq))
}

// JoinManager drives the Issuer side: seq0 emits the nonce, seq1
// verifies the member's SPK-DLOG and issues the credential, appending
// a GML entry keyed on F.
func (Ops) JoinManager(mgrIn scheme.ManagerKey, seq int, in []byte, grpIn scheme.GroupKey, appendGML func(scheme.GMLEntry) (uint64, error)) ([]byte, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "bbs04.JoinManager", fmt.Errorf("wrong group key type"))
	}
	mgr, ok := mgrIn.(ManagerKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "bbs04.JoinManager", fmt.Errorf("wrong manager key type"))
	}

	switch seq {
	case 0:
		n, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.Internal, "bbs04.JoinManager", err)
		}
		return mustBytes(n.MarshalBinary()), false, nil

	case 1:
		n, f, pi, err := unmarshalJoin1(in)
		if err != nil {
			return nil, false, gserr.New(gserr.Serialisation, "bbs04.JoinManager", err)
		}
		if !spk.VerifyDlog(grp.H, f, n, pi) {
			return nil, false, gserr.New(gserr.CryptoFail, "bbs04.JoinManager", fmt.Errorf("join SPK-DLOG rejected"))
		}
		cred, err := credential.Issue(mgr.ManagerKey, grp.GroupKey, f, rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.CryptoFail, "bbs04.JoinManager", err)
		}
		if appendGML != nil {
			fb, _ := f.MarshalBinary()
			if _, err := appendGML(scheme.GMLEntry{SchemeCode: scheme.BBS04, Trapdoor: fb}); err != nil {
				return nil, false, gserr.New(gserr.Internal, "bbs04.JoinManager", err)
			}
		}
		return marshalJoin2(cred.A, cred.X), true, nil
	}
	return nil, true, nil
}

// Sign randomises the credential, builds the base two-equation
// SPK-REP, and emits the signature.
func (Ops) Sign(memIn scheme.MemberKey, grpIn scheme.GroupKey, msg []byte, opts scheme.SignOptions) (scheme.Signature, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, gserr.New(gserr.InvalidArgument, "bbs04.Sign", fmt.Errorf("wrong group key type"))
	}
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveCred {
		return nil, gserr.New(gserr.InvalidArgument, "bbs04.Sign", fmt.Errorf("member has no credential"))
	}

	r, x, b, yPrime, err := credential.Randomize(grp.GroupKey, mem.Cred, mem.Y, rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "bbs04.Sign", err)
	}
	eqs := credential.Equations(r, grp.H, grp.H1)
	rx, err1 := curve.RandomScalar(rand.Reader)
	rb, err2 := curve.RandomScalar(rand.Reader)
	ry, err3 := curve.RandomScalar(rand.Reader)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, gserr.New(gserr.Internal, "bbs04.Sign", fmt.Errorf("failed to sample SPK randomisers"))
	}
	pi, err := spk.ProveRep(eqs, []curve.Scalar{x, b, yPrime}, []curve.Scalar{rx, rb, ry}, msg)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "bbs04.Sign", err)
	}
	return Signature{R: r, Pi: pi}, nil
}

// Verify recomputes the SPK challenge and checks the pairing relation
// binding Â, Ã through ipk.
func (Ops) Verify(sigIn scheme.Signature, msg []byte, grpIn scheme.GroupKey) (bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "bbs04.Verify", fmt.Errorf("wrong group key type"))
	}
	sig, ok := sigIn.(Signature)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "bbs04.Verify", fmt.Errorf("wrong signature type"))
	}
	if sig.R.AHat.IsIdentity() {
		return false, gserr.New(gserr.CryptoFail, "bbs04.Verify", fmt.Errorf("Â is the identity"))
	}
	eqs := credential.Equations(sig.R, grp.H, grp.H1)
	if !spk.VerifyRep(eqs, msg, sig.Pi) {
		return false, nil
	}
	ok2, err := credential.VerifyPairing(grp.GroupKey, sig.R)
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "bbs04.Verify", err)
	}
	return ok2, nil
}

// VerifyBatch verifies each signature independently; BBS04 has no
// shared-pairing batching optimisation (contrast klap20.VerifyBatch).
func (o Ops) VerifyBatch(sigs []scheme.Signature, msgs [][]byte, grpIn scheme.GroupKey) (bool, error) {
	if len(sigs) != len(msgs) {
		return false, gserr.New(gserr.InvalidArgument, "bbs04.VerifyBatch", fmt.Errorf("sigs/msgs length mismatch"))
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

func (Ops) ImportGroupKey(b []byte) (scheme.GroupKey, error) { return unmarshalGroupKey(b) }

func (Ops) ImportManagerKey(b []byte) (scheme.ManagerKey, error) {
	if len(b) < 1+fr32 {
		return nil, gserr.New(gserr.Serialisation, "bbs04.ImportManagerKey", fmt.Errorf("short buffer"))
	}
	var isk curve.Scalar
	if err := isk.UnmarshalBinary(b[1 : 1+fr32]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "bbs04.ImportManagerKey", err)
	}
	return ManagerKey{credential.ManagerKey{ISK: isk}}, nil
}

func (Ops) ImportMemberKey(b []byte) (scheme.MemberKey, error) {
	off := 1
	y, off, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "bbs04.ImportMemberKey", err)
	}
	var a curve.G1
	if off+g1Size > len(b) {
		return nil, gserr.New(gserr.Serialisation, "bbs04.ImportMemberKey", fmt.Errorf("short buffer"))
	}
	if err := a.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "bbs04.ImportMemberKey", err)
	}
	off += g1Size
	x, _, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "bbs04.ImportMemberKey", err)
	}
	return MemberKey{Y: y, HaveY: true, Cred: credential.Credential{A: a, X: x}, HaveCred: true}, nil
}

func (Ops) ImportSignature(b []byte) (scheme.Signature, error) {
	if len(b) < 1 {
		return nil, gserr.New(gserr.Serialisation, "bbs04.ImportSignature", fmt.Errorf("empty buffer"))
	}
	off := 1
	pts := make([]curve.G1, 4)
	for i := range pts {
		if off+g1Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "bbs04.ImportSignature", fmt.Errorf("short buffer"))
		}
		if err := pts[i].UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "bbs04.ImportSignature", err)
		}
		off += g1Size
	}
	c, off, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "bbs04.ImportSignature", err)
	}
	if off+4 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "bbs04.ImportSignature", fmt.Errorf("short buffer"))
	}
	n := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	s := make([]curve.Scalar, n)
	for i := range s {
		var sc curve.Scalar
		sc, off, err = readScalar(b, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "bbs04.ImportSignature", err)
		}
		s[i] = sc
	}
	r := credential.Randomized{AHat: pts[0], ATilde: pts[1], D: pts[2], C: pts[3]}
	return Signature{R: r, Pi: spk.Rep{C: c, S: s}}, nil
}

func (Ops) ImportProof(b []byte) (scheme.Proof, error) {
	return nil, gserr.New(gserr.UnsupportedScheme, "bbs04.ImportProof", fmt.Errorf("BBS04 has no standalone proof kind"))
}

// --- wire helpers shared with the schemes that embed bbs04's layout ---

const fr32 = 32
const g1Size = 48

func unmarshalGroupKey(b []byte) (GroupKey, error) {
	if len(b) < 1 {
		return GroupKey{}, gserr.New(gserr.Serialisation, "bbs04.unmarshalGroupKey", fmt.Errorf("empty buffer"))
	}
	off := 1
	var g1, h, h1 curve.G1
	for _, p := range []*curve.G1{&g1, &h, &h1} {
		if off+g1Size > len(b) {
			return GroupKey{}, gserr.New(gserr.Serialisation, "bbs04.unmarshalGroupKey", fmt.Errorf("short buffer"))
		}
		if err := p.UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return GroupKey{}, gserr.New(gserr.Serialisation, "bbs04.unmarshalGroupKey", err)
		}
		off += g1Size
	}
	const g2Size = 96
	var g2, ipk curve.G2
	for _, p := range []*curve.G2{&g2, &ipk} {
		if off+g2Size > len(b) {
			return GroupKey{}, gserr.New(gserr.Serialisation, "bbs04.unmarshalGroupKey", fmt.Errorf("short buffer"))
		}
		if err := p.UnmarshalBinary(b[off : off+g2Size]); err != nil {
			return GroupKey{}, gserr.New(gserr.Serialisation, "bbs04.unmarshalGroupKey", err)
		}
		off += g2Size
	}
	return GroupKey{credential.GroupKey{G1: g1, H: h, H1: h1, G2: g2, IPK: ipk}}, nil
}

func marshalPoints(g1, h, h1 curve.G1) func(g2, ipk curve.G2) ([]byte, error) {
	return func(g2, ipk curve.G2) ([]byte, error) {
		buf := []byte{byte(scheme.BBS04)}
		for _, p := range []curve.G1{g1, h, h1} {
			buf = append(buf, mustBytes(p.MarshalBinary())...)
		}
		for _, p := range []curve.G2{g2, ipk} {
			buf = append(buf, mustBytes(p.MarshalBinary())...)
		}
		return buf, nil
	}
}

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
// (F, π, n'): the member echoes the Issuer's nonce so the Issuer can
// rebuild the transcript the SPK-DLOG was bound to.
func marshalJoin1(n []byte, f curve.G1, pi spk.Dlog) []byte {
	buf := appendUint32(nil, uint32(len(n)))
	buf = append(buf, n...)
	buf = append(buf, mustBytes(f.MarshalBinary())...)
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
	var f curve.G1
	if err := f.UnmarshalBinary(b[off : off+g1Size]); err != nil {
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
	return n, f, spk.Dlog{C: c, S: s}, nil
}

// marshalJoin2 / unmarshalJoin2 encode the Mgr→Mem seq=2 message (A, x).
func marshalJoin2(a curve.G1, x curve.Scalar) []byte {
	buf := mustBytes(a.MarshalBinary())
	buf = appendScalar(buf, x)
	return buf
}

func unmarshalJoin2(b []byte) (curve.G1, curve.Scalar, error) {
	if len(b) < g1Size+fr32 {
		return curve.G1{}, curve.Scalar{}, fmt.Errorf("short join2 message")
	}
	var a curve.G1
	if err := a.UnmarshalBinary(b[:g1Size]); err != nil {
		return curve.G1{}, curve.Scalar{}, err
	}
	x, _, err := readScalar(b, g1Size)
	if err != nil {
		return curve.G1{}, curve.Scalar{}, err
	}
	return a, x, nil
}
