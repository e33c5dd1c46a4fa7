// Package dl21 implements the DL21 scoped-pseudonym scheme: the same
// BBS+-style credential as bbs04, but Sign binds a per-scope pseudonym
// nym = H_G1(scope)^y into the signature, and members can later prove
// several of their own signatures share the same y via Identify/Link.
package dl21

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
	scheme.Register(scheme.DL21, Ops{})
}

func Descriptor() scheme.Descriptor {
	return scheme.Descriptor{
		Code:           scheme.DL21,
		Name:           "DL21",
		HasGML:         false,
		UsesPairing:    true,
		JoinStart:      0,
		JoinSeq:        3,
		IssuerKeyIndex: 0,
	}
}

type GroupKey struct {
	credential.GroupKey
}

func (g GroupKey) Scheme() scheme.Code { return scheme.DL21 }
func (g GroupKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.DL21)}
	for _, p := range []curve.G1{g.G1, g.H, g.H1} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	for _, p := range []curve.G2{g.G2, g.IPK} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	return buf, nil
}

type ManagerKey struct {
	credential.ManagerKey
}

func (m ManagerKey) Scheme() scheme.Code { return scheme.DL21 }
func (m ManagerKey) MarshalBinary() ([]byte, error) {
	return append([]byte{byte(scheme.DL21)}, mustBytes(m.ISK.MarshalBinary())...), nil
}

// MemberKey is the member's credential plus their fixed long-term y,
// which is what makes pseudonyms scoped rather than per-signature.
type MemberKey struct {
	Y        curve.Scalar
	HaveY    bool
	Cred     credential.Credential
	HaveCred bool
}

func (m MemberKey) Scheme() scheme.Code { return scheme.DL21 }
func (m MemberKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.DL21)}
	buf = append(buf, mustBytes(m.Y.MarshalBinary())...)
	buf = append(buf, mustBytes(m.Cred.A.MarshalBinary())...)
	buf = append(buf, mustBytes(m.Cred.X.MarshalBinary())...)
	return buf, nil
}

// Signature carries the scope in clear alongside the pseudonym, since
// Identify/Link must be able to recompute nym = H_G1(scope)^y without
// any other side channel for which scope was used.
type Signature struct {
	R     credential.Randomized
	Nym   curve.G1
	Scope []byte
	Pi    spk.Rep
}

func (s Signature) Scheme() scheme.Code { return scheme.DL21 }
func (s Signature) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.DL21)}
	for _, p := range []curve.G1{s.R.AHat, s.R.ATilde, s.R.D, s.R.C, s.Nym} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	buf = appendUint32(buf, uint32(len(s.Scope)))
	buf = append(buf, s.Scope...)
	buf = append(buf, mustBytes(s.Pi.C.MarshalBinary())...)
	buf = appendUint32(buf, uint32(len(s.Pi.S)))
	for _, sc := range s.Pi.S {
		buf = append(buf, mustBytes(sc.MarshalBinary())...)
	}
	return buf, nil
}

// Proof is the combined SPK-DLOG produced by Link, proving one shared y
// is the discrete log of every linked signature's nym.
type Proof struct {
	Pi spk.Rep
}

func (p Proof) Scheme() scheme.Code { return scheme.DL21 }
func (p Proof) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.DL21)}
	buf = append(buf, mustBytes(p.Pi.C.MarshalBinary())...)
	buf = appendUint32(buf, uint32(len(p.Pi.S)))
	for _, sc := range p.Pi.S {
		buf = append(buf, mustBytes(sc.MarshalBinary())...)
	}
	return buf, nil
}

type Ops struct{}

func (Ops) Descriptor() scheme.Descriptor { return Descriptor() }

func (Ops) Setup(grpIn scheme.GroupKey, mgrIn scheme.ManagerKey) (scheme.GroupKey, scheme.ManagerKey, error) {
	grp, mgr, err := credential.GenerateGroupKey(rand.Reader)
	if err != nil {
		return nil, nil, gserr.New(gserr.CryptoFail, "dl21.Setup", err)
	}
	return GroupKey{grp}, ManagerKey{mgr}, nil
}

func (Ops) JoinMember(memIn scheme.MemberKey, seq int, in []byte, grpIn scheme.GroupKey) ([]byte, scheme.MemberKey, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, nil, false, gserr.New(gserr.InvalidArgument, "dl21.JoinMember", fmt.Errorf("wrong group key type"))
	}
	mem, _ := memIn.(MemberKey)

	switch seq {
	case 0:
		y, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "dl21.JoinMember", err)
		}
		f := credential.CommitY(grp.GroupKey, y)
		r, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "dl21.JoinMember", err)
		}
		pi, err := spk.ProveDlog(grp.H, f, y, in, r)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "dl21.JoinMember", err)
		}
		mem.Y, mem.HaveY = y, true
		return marshalJoin1(in, f, pi), mem, false, nil

	case 2:
		if !mem.HaveY {
			return nil, nil, false, gserr.New(gserr.ProtocolFail, "dl21.JoinMember", fmt.Errorf("member has no pending y"))
		}
		a, x, err := unmarshalJoin2(in)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Serialisation, "dl21.JoinMember", err)
		}
		cred := credential.Credential{A: a, X: x}
		ok, err := credential.VerifyCredential(grp.GroupKey, cred, mem.Y)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "dl21.JoinMember", err)
		}
		if !ok {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "dl21.JoinMember", fmt.Errorf("issued credential fails pairing check"))
		}
		mem.Cred, mem.HaveCred = cred, true
		return nil, mem, true, nil
	}
	return nil, nil, false, gserr.New(gserr.ProtocolFail, "dl21.JoinMember", fmt.Errorf("unexpected seq %d", seq))
}

// JoinManager never appends a GML entry: DL21 has no Opener, so there
// is nothing to record a trapdoor for.
func (Ops) JoinManager(mgrIn scheme.ManagerKey, seq int, in []byte, grpIn scheme.GroupKey, appendGML func(scheme.GMLEntry) (uint64, error)) ([]byte, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "dl21.JoinManager", fmt.Errorf("wrong group key type"))
	}
	mgr, ok := mgrIn.(ManagerKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "dl21.JoinManager", fmt.Errorf("wrong manager key type"))
	}

	switch seq {
	case 0:
		n, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.Internal, "dl21.JoinManager", err)
		}
		return mustBytes(n.MarshalBinary()), false, nil

	case 1:
		n, f, pi, err := unmarshalJoin1(in)
		if err != nil {
			return nil, false, gserr.New(gserr.Serialisation, "dl21.JoinManager", err)
		}
		if !spk.VerifyDlog(grp.H, f, n, pi) {
			return nil, false, gserr.New(gserr.CryptoFail, "dl21.JoinManager", fmt.Errorf("join SPK-DLOG rejected"))
		}
		cred, err := credential.Issue(mgr.ManagerKey, grp.GroupKey, f, rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.CryptoFail, "dl21.JoinManager", err)
		}
		return marshalJoin2(cred.A, cred.X), true, nil
	}
	return nil, true, nil
}

func scopeBase(scope []byte) (curve.G1, error) {
	return curve.HashToG1(scope, []byte("groupsig-dst"))
}

func nymEquation(nym curve.G1, base curve.G1, idx int) spk.Equation {
	return spk.Equation{Y: nym, Bases: []curve.G1{base}, WitnessIdx: []int{idx}}
}

func (Ops) Sign(memIn scheme.MemberKey, grpIn scheme.GroupKey, msg []byte, opts scheme.SignOptions) (scheme.Signature, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, gserr.New(gserr.InvalidArgument, "dl21.Sign", fmt.Errorf("wrong group key type"))
	}
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveCred {
		return nil, gserr.New(gserr.InvalidArgument, "dl21.Sign", fmt.Errorf("member has no credential"))
	}
	if len(opts.Scope) == 0 {
		return nil, gserr.New(gserr.InvalidArgument, "dl21.Sign", fmt.Errorf("DL21 requires a non-empty scope"))
	}

	base, err := scopeBase(opts.Scope)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "dl21.Sign", err)
	}
	nym := base.ScalarMult(mem.Y)

	r, x, b, yPrime, err := credential.Randomize(grp.GroupKey, mem.Cred, mem.Y, rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "dl21.Sign", err)
	}
	eqs := credential.Equations(r, grp.H, grp.H1)
	eqs = append(eqs, nymEquation(nym, base, 3))

	rx, e1 := curve.RandomScalar(rand.Reader)
	rb, e2 := curve.RandomScalar(rand.Reader)
	ry, e3 := curve.RandomScalar(rand.Reader)
	ryReal, e4 := curve.RandomScalar(rand.Reader)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
		return nil, gserr.New(gserr.Internal, "dl21.Sign", fmt.Errorf("failed to sample SPK randomisers"))
	}
	pi, err := spk.ProveRep(eqs, []curve.Scalar{x, b, yPrime, mem.Y}, []curve.Scalar{rx, rb, ry, ryReal}, msg)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "dl21.Sign", err)
	}
	scope := append([]byte(nil), opts.Scope...)
	return Signature{R: r, Nym: nym, Scope: scope, Pi: pi}, nil
}

func (Ops) Verify(sigIn scheme.Signature, msg []byte, grpIn scheme.GroupKey) (bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "dl21.Verify", fmt.Errorf("wrong group key type"))
	}
	sig, ok := sigIn.(Signature)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "dl21.Verify", fmt.Errorf("wrong signature type"))
	}
	base, err := scopeBase(sig.Scope)
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "dl21.Verify", err)
	}
	eqs := credential.Equations(sig.R, grp.H, grp.H1)
	eqs = append(eqs, nymEquation(sig.Nym, base, 3))
	if !spk.VerifyRep(eqs, msg, sig.Pi) {
		return false, nil
	}
	return credential.VerifyPairing(grp.GroupKey, sig.R)
}

func (o Ops) VerifyBatch(sigs []scheme.Signature, msgs [][]byte, grpIn scheme.GroupKey) (bool, error) {
	if len(sigs) != len(msgs) {
		return false, gserr.New(gserr.InvalidArgument, "dl21.VerifyBatch", fmt.Errorf("sigs/msgs length mismatch"))
	}
	for i := range sigs {
		ok, err := o.Verify(sigs[i], msgs[i], grpIn)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Identify recomputes nym' from the scope embedded in sig using the
// member's own y and compares it to sig.Nym.
func (Ops) Identify(grpIn scheme.GroupKey, memIn scheme.MemberKey, sigIn scheme.Signature, msg []byte) (bool, error) {
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveY {
		return false, gserr.New(gserr.InvalidArgument, "dl21.Identify", fmt.Errorf("member has no y"))
	}
	sig, ok := sigIn.(Signature)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "dl21.Identify", fmt.Errorf("wrong signature type"))
	}
	base, err := scopeBase(sig.Scope)
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "dl21.Identify", err)
	}
	want := base.ScalarMult(mem.Y)
	return want.Equal(sig.Nym), nil
}

// Link proves that every one of sigs was produced using the caller's
// own y: an SPK-DLOG conjunction with one equation per signature,
// sharing witness index 0 (y), bound to msg for replay-resistance.
func (Ops) Link(grpIn scheme.GroupKey, memIn scheme.MemberKey, msg []byte, sigs []scheme.Signature, msgs [][]byte) (scheme.Proof, error) {
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveY {
		return nil, gserr.New(gserr.InvalidArgument, "dl21.Link", fmt.Errorf("member has no y"))
	}
	if len(sigs) == 0 || len(sigs) != len(msgs) {
		return nil, gserr.New(gserr.InvalidArgument, "dl21.Link", fmt.Errorf("sigs/msgs must be non-empty and equal length"))
	}

	eqs := make([]spk.Equation, 0, len(sigs))
	rnds := make([]curve.Scalar, 0, 1)
	for _, sIn := range sigs {
		s, ok := sIn.(Signature)
		if !ok {
			return nil, gserr.New(gserr.InvalidArgument, "dl21.Link", fmt.Errorf("wrong signature type"))
		}
		base, err := scopeBase(s.Scope)
		if err != nil {
			return nil, gserr.New(gserr.CryptoFail, "dl21.Link", err)
		}
		eqs = append(eqs, spk.Equation{Y: s.Nym, Bases: []curve.G1{base}, WitnessIdx: []int{0}})
	}
	r0, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.Internal, "dl21.Link", err)
	}
	rnds = append(rnds, r0)
	pi, err := spk.ProveRep(eqs, []curve.Scalar{mem.Y}, rnds, msg)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "dl21.Link", err)
	}
	return Proof{Pi: pi}, nil
}

// VerifyLink checks every signature independently, then the combined
// SPK-DLOG conjunction produced by Link.
func (o Ops) VerifyLink(proofIn scheme.Proof, grpIn scheme.GroupKey, msg []byte, sigs []scheme.Signature, msgs [][]byte) (bool, error) {
	proof, ok := proofIn.(Proof)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "dl21.VerifyLink", fmt.Errorf("wrong proof type"))
	}
	if len(sigs) == 0 || len(sigs) != len(msgs) {
		return false, gserr.New(gserr.InvalidArgument, "dl21.VerifyLink", fmt.Errorf("sigs/msgs must be non-empty and equal length"))
	}
	eqs := make([]spk.Equation, 0, len(sigs))
	for i, sIn := range sigs {
		ok, err := o.Verify(sIn, msgs[i], grpIn)
		if err != nil || !ok {
			return false, err
		}
		s := sIn.(Signature)
		base, err := scopeBase(s.Scope)
		if err != nil {
			return false, gserr.New(gserr.CryptoFail, "dl21.VerifyLink", err)
		}
		eqs = append(eqs, spk.Equation{Y: s.Nym, Bases: []curve.G1{base}, WitnessIdx: []int{0}})
	}
	return spk.VerifyRep(eqs, msg, proof.Pi), nil
}

func (Ops) ImportGroupKey(b []byte) (scheme.GroupKey, error) {
	if len(b) < 1 {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportGroupKey", fmt.Errorf("empty buffer"))
	}
	off := 1
	var g1, h, h1 curve.G1
	for _, p := range []*curve.G1{&g1, &h, &h1} {
		if off+g1Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "dl21.ImportGroupKey", fmt.Errorf("short buffer"))
		}
		if err := p.UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21.ImportGroupKey", err)
		}
		off += g1Size
	}
	var g2, ipk curve.G2
	for _, p := range []*curve.G2{&g2, &ipk} {
		if off+g2Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "dl21.ImportGroupKey", fmt.Errorf("short buffer"))
		}
		if err := p.UnmarshalBinary(b[off : off+g2Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21.ImportGroupKey", err)
		}
		off += g2Size
	}
	return GroupKey{credential.GroupKey{G1: g1, H: h, H1: h1, G2: g2, IPK: ipk}}, nil
}

func (Ops) ImportManagerKey(b []byte) (scheme.ManagerKey, error) {
	isk, _, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportManagerKey", err)
	}
	return ManagerKey{credential.ManagerKey{ISK: isk}}, nil
}

func (Ops) ImportMemberKey(b []byte) (scheme.MemberKey, error) {
	y, off, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportMemberKey", err)
	}
	var a curve.G1
	if off+g1Size > len(b) {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportMemberKey", fmt.Errorf("short buffer"))
	}
	if err := a.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportMemberKey", err)
	}
	off += g1Size
	x, _, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportMemberKey", err)
	}
	return MemberKey{Y: y, HaveY: true, Cred: credential.Credential{A: a, X: x}, HaveCred: true}, nil
}

func (Ops) ImportSignature(b []byte) (scheme.Signature, error) {
	if len(b) < 1 {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportSignature", fmt.Errorf("empty buffer"))
	}
	off := 1
	pts := make([]curve.G1, 5)
	for i := range pts {
		if off+g1Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "dl21.ImportSignature", fmt.Errorf("short buffer"))
		}
		if err := pts[i].UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21.ImportSignature", err)
		}
		off += g1Size
	}
	if off+4 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportSignature", fmt.Errorf("short buffer"))
	}
	scopeLen := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	if off+int(scopeLen) > len(b) {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportSignature", fmt.Errorf("short buffer"))
	}
	scope := append([]byte(nil), b[off:off+int(scopeLen)]...)
	off += int(scopeLen)

	c, off, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportSignature", err)
	}
	if off+4 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportSignature", fmt.Errorf("short buffer"))
	}
	n := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	s := make([]curve.Scalar, n)
	for i := range s {
		var sc curve.Scalar
		sc, off, err = readScalar(b, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21.ImportSignature", err)
		}
		s[i] = sc
	}
	r := credential.Randomized{AHat: pts[0], ATilde: pts[1], D: pts[2], C: pts[3]}
	return Signature{R: r, Nym: pts[4], Scope: scope, Pi: spk.Rep{C: c, S: s}}, nil
}

func (Ops) ImportProof(b []byte) (scheme.Proof, error) {
	c, off, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportProof", err)
	}
	if off+4 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "dl21.ImportProof", fmt.Errorf("short buffer"))
	}
	n := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	s := make([]curve.Scalar, n)
	for i := range s {
		var sc curve.Scalar
		sc, off, err = readScalar(b, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21.ImportProof", err)
		}
		s[i] = sc
	}
	return Proof{Pi: spk.Rep{C: c, S: s}}, nil
}

const fr32 = 32
const g1Size = 48
const g2Size = 96

func mustBytes(b []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return b
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
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

func marshalJoin1(n []byte, f curve.G1, pi spk.Dlog) []byte {
	buf := appendUint32(nil, uint32(len(n)))
	buf = append(buf, n...)
	buf = append(buf, mustBytes(f.MarshalBinary())...)
	buf = append(buf, mustBytes(pi.C.MarshalBinary())...)
	buf = append(buf, mustBytes(pi.S.MarshalBinary())...)
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

func marshalJoin2(a curve.G1, x curve.Scalar) []byte {
	buf := mustBytes(a.MarshalBinary())
	buf = append(buf, mustBytes(x.MarshalBinary())...)
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
