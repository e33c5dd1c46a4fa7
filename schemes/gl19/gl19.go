// Package gl19 extends the bbs04 credential with an expiration-bound
// membership and a Blind/Convert/Unblind pseudonymisation pipeline: a
// member's per-signature pseudonym is ElGamal-encrypted
// under a Converter's blinding key, then rescaled (not decrypted) by
// the Converter into a domain-specific pseudonym that only the
// original blind-key holder can read back in the clear.
package gl19

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/luxfi/groupsig/internal/credential"
	"github.com/luxfi/groupsig/pkg/curve"
	"github.com/luxfi/groupsig/pkg/gserr"
	"github.com/luxfi/groupsig/pkg/scheme"
	"github.com/luxfi/groupsig/pkg/spk"
)

func init() {
	scheme.Register(scheme.GL19, Ops{})
}

func Descriptor() scheme.Descriptor {
	return scheme.Descriptor{
		Code:              scheme.GL19,
		Name:              "GL19",
		HasGML:            true,
		UsesPairing:       true,
		JoinStart:         0,
		JoinSeq:           3,
		IssuerKeyIndex:    0,
		InspectorKeyIndex: 1,
	}
}

var nymBase = mustG1(curve.HashToG1([]byte("groupsig/gl19/nym-base"), []byte("groupsig-dst")))

// GroupKey adds the Converter's master scaling key's public commitment,
// established at the scheme's second Setup call.
type GroupKey struct {
	credential.GroupKey
	EGBase curve.G1
	EGPub  curve.G1
}

func (g GroupKey) Scheme() scheme.Code { return scheme.GL19 }

func (g GroupKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.GL19)}
	for _, p := range []curve.G1{g.G1, g.H, g.H1, g.EGBase, g.EGPub} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	for _, p := range []curve.G2{g.G2, g.IPK} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	return buf, nil
}

// ManagerKey bundles the Issuer secret plus the Converter's scaling
// secret XI, established at the scheme's second Setup call so every
// Convert call rescales by the same persistent factor.
type ManagerKey struct {
	credential.ManagerKey
	XI     curve.Scalar
	HaveXI bool
}

func (m ManagerKey) Scheme() scheme.Code { return scheme.GL19 }
func (m ManagerKey) MarshalBinary() ([]byte, error) {
	buf := append([]byte{byte(scheme.GL19)}, mustBytes(m.ISK.MarshalBinary())...)
	if m.HaveXI {
		buf = append(buf, byte(1))
		buf = append(buf, mustBytes(m.XI.MarshalBinary())...)
	} else {
		buf = append(buf, byte(0))
	}
	return buf, nil
}

// MemberKey mirrors bbs04's plus the expiry the Issuer bound at Join.
type MemberKey struct {
	Y        curve.Scalar
	HaveY    bool
	Cred     credential.Credential
	HaveCred bool
	Expiry   uint64
}

func (m MemberKey) Scheme() scheme.Code { return scheme.GL19 }
func (m MemberKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.GL19)}
	buf = append(buf, mustBytes(m.Y.MarshalBinary())...)
	buf = append(buf, mustBytes(m.Cred.A.MarshalBinary())...)
	buf = append(buf, mustBytes(m.Cred.X.MarshalBinary())...)
	buf = appendUint64(buf, m.Expiry)
	return buf, nil
}

// BlindKey is the Converter-facing ElGamal keypair.
type BlindKey struct {
	BSK    curve.Scalar
	BPK    curve.G1
	HaveSK bool
}

func (b BlindKey) Scheme() scheme.Code { return scheme.GL19 }
func (b BlindKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.GL19)}
	buf = append(buf, mustBytes(b.BPK.MarshalBinary())...)
	if b.HaveSK {
		buf = append(buf, byte(1))
		buf = append(buf, mustBytes(b.BSK.MarshalBinary())...)
	} else {
		buf = append(buf, byte(0))
	}
	return buf, nil
}

// Signature is the bbs04-style credential proof plus a plaintext
// pseudonym Nym (proven via an extra SPK equation) and an expiry.
type Signature struct {
	R      credential.Randomized
	Nym    curve.G1
	Pi     spk.Rep
	Expiry uint64
}

func (s Signature) Scheme() scheme.Code { return scheme.GL19 }
func (s Signature) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.GL19)}
	for _, p := range []curve.G1{s.R.AHat, s.R.ATilde, s.R.D, s.R.C, s.Nym} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	buf = append(buf, mustBytes(s.Pi.C.MarshalBinary())...)
	buf = appendUint32(buf, uint32(len(s.Pi.S)))
	for _, sc := range s.Pi.S {
		buf = append(buf, mustBytes(sc.MarshalBinary())...)
	}
	buf = appendUint64(buf, s.Expiry)
	return buf, nil
}

// BlindSignature attaches an ElGamal encryption of Signature.Nym under
// a BlindKey's public key.
type BlindSignature struct {
	Base       Signature
	Ehy1, Ehy2 curve.G1
}

func (b BlindSignature) Scheme() scheme.Code { return scheme.GL19 }

// MarshalBinary emits the base signature's bytes followed by the two
// ciphertext points; ImportSignature tells the two forms apart by the
// trailing length.
func (b BlindSignature) MarshalBinary() ([]byte, error) {
	buf, err := b.Base.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf = append(buf, mustBytes(b.Ehy1.MarshalBinary())...)
	buf = append(buf, mustBytes(b.Ehy2.MarshalBinary())...)
	return buf, nil
}

type Ops struct{}

func (Ops) Descriptor() scheme.Descriptor { return Descriptor() }

func (Ops) Setup(grpIn scheme.GroupKey, mgrIn scheme.ManagerKey) (scheme.GroupKey, scheme.ManagerKey, error) {
	if grpIn == nil {
		base, mgr, err := credential.GenerateGroupKey(rand.Reader)
		if err != nil {
			return nil, nil, gserr.New(gserr.CryptoFail, "gl19.Setup", err)
		}
		egBase, err := curve.HashToG1([]byte("groupsig/gl19/eg-base"), []byte("groupsig-dst"))
		if err != nil {
			return nil, nil, gserr.New(gserr.Internal, "gl19.Setup", err)
		}
		return GroupKey{GroupKey: base, EGBase: egBase}, ManagerKey{ManagerKey: mgr}, nil
	}
	// Second call: establish the Converter's scaling secret.
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, nil, gserr.New(gserr.InvalidArgument, "gl19.Setup", fmt.Errorf("wrong group key type"))
	}
	mgr, ok := mgrIn.(ManagerKey)
	if !ok {
		return nil, nil, gserr.New(gserr.InvalidArgument, "gl19.Setup", fmt.Errorf("wrong manager key type"))
	}
	xi, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, nil, gserr.New(gserr.Internal, "gl19.Setup", err)
	}
	grp.EGPub = grp.EGBase.ScalarMult(xi)
	mgr.XI, mgr.HaveXI = xi, true
	return grp, mgr, nil
}

func (Ops) JoinMember(memIn scheme.MemberKey, seq int, in []byte, grpIn scheme.GroupKey) ([]byte, scheme.MemberKey, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, nil, false, gserr.New(gserr.InvalidArgument, "gl19.JoinMember", fmt.Errorf("wrong group key type"))
	}
	mem, _ := memIn.(MemberKey)

	switch seq {
	case 0:
		y, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "gl19.JoinMember", err)
		}
		f := credential.CommitY(grp.GroupKey, y)
		r0, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "gl19.JoinMember", err)
		}
		pi, err := spk.ProveDlog(grp.H, f, y, in, r0)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "gl19.JoinMember", err)
		}
		mem.Y, mem.HaveY = y, true
		return marshalJoin1(in, f, pi), mem, false, nil

	case 2:
		if !mem.HaveY {
			return nil, nil, false, gserr.New(gserr.ProtocolFail, "gl19.JoinMember", fmt.Errorf("member has no pending y"))
		}
		a, x, exp, err := unmarshalJoin2(in)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Serialisation, "gl19.JoinMember", err)
		}
		cred := credential.Credential{A: a, X: x}
		ok, err := credential.VerifyCredential(grp.GroupKey, cred, mem.Y)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "gl19.JoinMember", err)
		}
		if !ok {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "gl19.JoinMember", fmt.Errorf("issued credential fails pairing check"))
		}
		mem.Cred, mem.HaveCred, mem.Expiry = cred, true, exp
		return nil, mem, true, nil
	}
	return nil, nil, false, gserr.New(gserr.ProtocolFail, "gl19.JoinMember", fmt.Errorf("unexpected seq %d", seq))
}

// DefaultMembershipLifetime is the expiry window JoinManager grants at
// every Join, counted from the time of issuance. JoinManager takes no
// caller-supplied lifetime.
const DefaultMembershipLifetime = 365 * 24 * time.Hour

func (Ops) JoinManager(mgrIn scheme.ManagerKey, seq int, in []byte, grpIn scheme.GroupKey, appendGML func(scheme.GMLEntry) (uint64, error)) ([]byte, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "gl19.JoinManager", fmt.Errorf("wrong group key type"))
	}
	mgr, ok := mgrIn.(ManagerKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "gl19.JoinManager", fmt.Errorf("wrong manager key type"))
	}

	switch seq {
	case 0:
		n, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.Internal, "gl19.JoinManager", err)
		}
		return mustBytes(n.MarshalBinary()), false, nil

	case 1:
		n, f, pi, err := unmarshalJoin1(in)
		if err != nil {
			return nil, false, gserr.New(gserr.Serialisation, "gl19.JoinManager", err)
		}
		if !spk.VerifyDlog(grp.H, f, n, pi) {
			return nil, false, gserr.New(gserr.CryptoFail, "gl19.JoinManager", fmt.Errorf("join SPK-DLOG rejected"))
		}
		cred, err := credential.Issue(mgr.ManagerKey, grp.GroupKey, f, rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.CryptoFail, "gl19.JoinManager", err)
		}
		exp := uint64(timeNow().Add(DefaultMembershipLifetime).Unix())
		if appendGML != nil {
			fb, _ := f.MarshalBinary()
			if _, err := appendGML(scheme.GMLEntry{SchemeCode: scheme.GL19, Trapdoor: fb, Extra: appendUint64(nil, exp)}); err != nil {
				return nil, false, gserr.New(gserr.Internal, "gl19.JoinManager", err)
			}
		}
		return marshalJoin2(cred.A, cred.X, exp), true, nil
	}
	return nil, true, nil
}

// Sign randomises the credential, computes the domain pseudonym and
// binds it into the same SPK-REP conjunction.
func (Ops) Sign(memIn scheme.MemberKey, grpIn scheme.GroupKey, msg []byte, opts scheme.SignOptions) (scheme.Signature, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, gserr.New(gserr.InvalidArgument, "gl19.Sign", fmt.Errorf("wrong group key type"))
	}
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveCred {
		return nil, gserr.New(gserr.InvalidArgument, "gl19.Sign", fmt.Errorf("member has no credential"))
	}
	if uint64(timeNow().Unix()) >= mem.Expiry {
		return nil, gserr.New(gserr.ProtocolFail, "gl19.Sign", fmt.Errorf("membership credential expired"))
	}

	r, x, b, yPrime, err := credential.Randomize(grp.GroupKey, mem.Cred, mem.Y, rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "gl19.Sign", err)
	}
	nym := nymBase.ScalarMult(mem.Y)
	eqs := credential.Equations(r, grp.H, grp.H1)
	eqs = append(eqs, spk.Equation{Y: nym, Bases: []curve.G1{nymBase}, WitnessIdx: []int{3}})

	rx, e1 := curve.RandomScalar(rand.Reader)
	rb, e2 := curve.RandomScalar(rand.Reader)
	ry, e3 := curve.RandomScalar(rand.Reader)
	ryReal, e4 := curve.RandomScalar(rand.Reader)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
		return nil, gserr.New(gserr.Internal, "gl19.Sign", fmt.Errorf("failed to sample SPK randomisers"))
	}
	pi, err := spk.ProveRep(eqs, []curve.Scalar{x, b, yPrime, mem.Y}, []curve.Scalar{rx, rb, ry, ryReal}, msg)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "gl19.Sign", err)
	}
	return Signature{R: r, Nym: nym, Pi: pi, Expiry: mem.Expiry}, nil
}

func (Ops) Verify(sigIn scheme.Signature, msg []byte, grpIn scheme.GroupKey) (bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "gl19.Verify", fmt.Errorf("wrong group key type"))
	}
	sig, ok := sigIn.(Signature)
	if !ok {
		// Blinding leaves the base signature untouched, so a blinded
		// signature stays verifiable.
		bsig, isBlind := sigIn.(BlindSignature)
		if !isBlind {
			return false, gserr.New(gserr.InvalidArgument, "gl19.Verify", fmt.Errorf("wrong signature type"))
		}
		sig = bsig.Base
	}
	if uint64(timeNow().Unix()) >= sig.Expiry {
		return false, nil
	}
	eqs := credential.Equations(sig.R, grp.H, grp.H1)
	eqs = append(eqs, spk.Equation{Y: sig.Nym, Bases: []curve.G1{nymBase}, WitnessIdx: []int{3}})
	if !spk.VerifyRep(eqs, msg, sig.Pi) {
		return false, nil
	}
	return credential.VerifyPairing(grp.GroupKey, sig.R)
}

func (o Ops) VerifyBatch(sigs []scheme.Signature, msgs [][]byte, grpIn scheme.GroupKey) (bool, error) {
	if len(sigs) != len(msgs) {
		return false, gserr.New(gserr.InvalidArgument, "gl19.VerifyBatch", fmt.Errorf("sigs/msgs length mismatch"))
	}
	for i := range sigs {
		ok, err := o.Verify(sigs[i], msgs[i], grpIn)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// NewBlindKey implements scheme.BlindKeyer.
func (Ops) NewBlindKey() (scheme.BlindKey, error) {
	sk, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.Internal, "gl19.NewBlindKey", err)
	}
	return BlindKey{BSK: sk, BPK: curve.G1Generator().ScalarMult(sk), HaveSK: true}, nil
}

func (Ops) ImportBlindKey(b []byte) (scheme.BlindKey, error) {
	if len(b) < 1+g1Size+1 {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportBlindKey", fmt.Errorf("short buffer"))
	}
	var bpk curve.G1
	if err := bpk.UnmarshalBinary(b[1 : 1+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportBlindKey", err)
	}
	off := 1 + g1Size
	haveSK := b[off] == 1
	off++
	bk := BlindKey{BPK: bpk}
	if haveSK {
		sk, _, err := readScalar(b, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportBlindKey", err)
		}
		bk.BSK, bk.HaveSK = sk, true
	}
	return bk, nil
}

// Blind implements scheme.Converter: ElGamal-encrypt the pseudonym
// under the BlindKey's public key.
func (Ops) Blind(sigIn scheme.Signature, grpIn scheme.GroupKey, bkIn scheme.BlindKey) (scheme.Signature, error) {
	sig, ok := sigIn.(Signature)
	if !ok {
		return nil, gserr.New(gserr.InvalidArgument, "gl19.Blind", fmt.Errorf("wrong signature type"))
	}
	bk, ok := bkIn.(BlindKey)
	if !ok {
		return nil, gserr.New(gserr.InvalidArgument, "gl19.Blind", fmt.Errorf("wrong blind key type"))
	}
	s, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.Internal, "gl19.Blind", err)
	}
	ehy1 := curve.G1Generator().ScalarMult(s)
	ehy2 := sig.Nym.Add(bk.BPK.ScalarMult(s))
	return BlindSignature{Base: sig, Ehy1: ehy1, Ehy2: ehy2}, nil
}

// Convert rescales every blinded pseudonym by the
// Converter's own persistent scaling secret (established at the
// scheme's second Setup call) without decrypting it, preserving batch
// order. The rescaled ciphertext stays decryptable only by the
// original BlindKey holder (scalar multiplication distributes over the
// ElGamal ciphertext), and repeated Converts of the same underlying
// pseudonym land on the same rescaled value since XI never changes.
func (Ops) Convert(bsigsIn []scheme.Signature, grpIn scheme.GroupKey, mgrIn scheme.ManagerKey) ([]scheme.Signature, error) {
	mgr, ok := mgrIn.(ManagerKey)
	if !ok {
		return nil, gserr.New(gserr.InvalidArgument, "gl19.Convert", fmt.Errorf("wrong manager key type"))
	}
	if !mgr.HaveXI {
		return nil, gserr.New(gserr.ProtocolFail, "gl19.Convert", fmt.Errorf("manager key has no Converter secret; run the scheme's second Setup call first"))
	}
	out := make([]scheme.Signature, len(bsigsIn))
	for i, bsigIn := range bsigsIn {
		bsig, ok := bsigIn.(BlindSignature)
		if !ok {
			return nil, gserr.New(gserr.InvalidArgument, "gl19.Convert", fmt.Errorf("wrong blind signature type at index %d", i))
		}
		out[i] = BlindSignature{
			Base: bsig.Base,
			Ehy1: bsig.Ehy1.ScalarMult(mgr.XI),
			Ehy2: bsig.Ehy2.ScalarMult(mgr.XI),
		}
	}
	return out, nil
}

// Unblind recovers the (possibly Converted) pseudonym in the clear.
func (Ops) Unblind(bsigIn scheme.Signature, bkIn scheme.BlindKey, msg []byte) ([]byte, error) {
	bsig, ok := bsigIn.(BlindSignature)
	if !ok {
		return nil, gserr.New(gserr.InvalidArgument, "gl19.Unblind", fmt.Errorf("wrong signature type"))
	}
	bk, ok := bkIn.(BlindKey)
	if !ok || !bk.HaveSK {
		return nil, gserr.New(gserr.InvalidArgument, "gl19.Unblind", fmt.Errorf("blind key has no secret"))
	}
	nym := bsig.Ehy2.Add(bsig.Ehy1.ScalarMult(bk.BSK.Neg()))
	return nym.MarshalBinary()
}

func (Ops) ImportGroupKey(b []byte) (scheme.GroupKey, error) {
	if len(b) < 1 {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportGroupKey", fmt.Errorf("empty buffer"))
	}
	off := 1
	var g1, h, h1, egBase, egPub curve.G1
	for _, p := range []*curve.G1{&g1, &h, &h1, &egBase, &egPub} {
		if off+g1Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportGroupKey", fmt.Errorf("short buffer"))
		}
		if err := p.UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportGroupKey", err)
		}
		off += g1Size
	}
	var g2, ipk curve.G2
	for _, p := range []*curve.G2{&g2, &ipk} {
		if off+g2Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportGroupKey", fmt.Errorf("short buffer"))
		}
		if err := p.UnmarshalBinary(b[off : off+g2Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportGroupKey", err)
		}
		off += g2Size
	}
	return GroupKey{GroupKey: credential.GroupKey{G1: g1, H: h, H1: h1, G2: g2, IPK: ipk}, EGBase: egBase, EGPub: egPub}, nil
}

func (Ops) ImportManagerKey(b []byte) (scheme.ManagerKey, error) {
	isk, off, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportManagerKey", err)
	}
	mgr := ManagerKey{ManagerKey: credential.ManagerKey{ISK: isk}}
	if off < len(b) && b[off] == 1 {
		xi, _, err := readScalar(b, off+1)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportManagerKey", err)
		}
		mgr.XI, mgr.HaveXI = xi, true
	}
	return mgr, nil
}

func (Ops) ImportMemberKey(b []byte) (scheme.MemberKey, error) {
	y, off, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportMemberKey", err)
	}
	var a curve.G1
	if off+g1Size > len(b) {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportMemberKey", fmt.Errorf("short buffer"))
	}
	if err := a.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportMemberKey", err)
	}
	off += g1Size
	x, off, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportMemberKey", err)
	}
	if off+8 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportMemberKey", fmt.Errorf("short buffer"))
	}
	exp := binary.BigEndian.Uint64(b[off : off+8])
	return MemberKey{Y: y, HaveY: true, Cred: credential.Credential{A: a, X: x}, HaveCred: true, Expiry: exp}, nil
}

func (Ops) ImportSignature(b []byte) (scheme.Signature, error) {
	if len(b) < 1 {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportSignature", fmt.Errorf("empty buffer"))
	}
	off := 1
	pts := make([]curve.G1, 5)
	for i := range pts {
		if off+g1Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportSignature", fmt.Errorf("short buffer"))
		}
		if err := pts[i].UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportSignature", err)
		}
		off += g1Size
	}
	c, off, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportSignature", err)
	}
	if off+4 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportSignature", fmt.Errorf("short buffer"))
	}
	n := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	s := make([]curve.Scalar, n)
	for i := range s {
		var sc curve.Scalar
		sc, off, err = readScalar(b, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportSignature", err)
		}
		s[i] = sc
	}
	if off+8 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportSignature", fmt.Errorf("short buffer"))
	}
	exp := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	r := credential.Randomized{AHat: pts[0], ATilde: pts[1], D: pts[2], C: pts[3]}
	sig := Signature{R: r, Nym: pts[4], Pi: spk.Rep{C: c, S: s}, Expiry: exp}
	switch len(b) - off {
	case 0:
		return sig, nil
	case 2 * g1Size:
		// Blind form: two trailing ciphertext points.
		var ehy1, ehy2 curve.G1
		if err := ehy1.UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportSignature", err)
		}
		if err := ehy2.UnmarshalBinary(b[off+g1Size : off+2*g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "gl19.ImportSignature", err)
		}
		return BlindSignature{Base: sig, Ehy1: ehy1, Ehy2: ehy2}, nil
	default:
		return nil, gserr.New(gserr.Serialisation, "gl19.ImportSignature", fmt.Errorf("trailing bytes"))
	}
}

func (Ops) ImportProof(b []byte) (scheme.Proof, error) {
	return nil, gserr.New(gserr.UnsupportedScheme, "gl19.ImportProof", fmt.Errorf("GL19 has no standalone proof kind"))
}

const fr32 = 32
const g1Size = 48
const g2Size = 96

func timeNow() time.Time { return time.Now() }

func mustBytes(b []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return b
}

func mustG1(p curve.G1, err error) curve.G1 {
	if err != nil {
		panic(err)
	}
	return p
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
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

func marshalJoin2(a curve.G1, x curve.Scalar, exp uint64) []byte {
	buf := mustBytes(a.MarshalBinary())
	buf = append(buf, mustBytes(x.MarshalBinary())...)
	buf = appendUint64(buf, exp)
	return buf
}

func unmarshalJoin2(b []byte) (curve.G1, curve.Scalar, uint64, error) {
	if len(b) < g1Size+fr32+8 {
		return curve.G1{}, curve.Scalar{}, 0, fmt.Errorf("short join2 message")
	}
	var a curve.G1
	if err := a.UnmarshalBinary(b[:g1Size]); err != nil {
		return curve.G1{}, curve.Scalar{}, 0, err
	}
	x, off, err := readScalar(b, g1Size)
	if err != nil {
		return curve.G1{}, curve.Scalar{}, 0, err
	}
	exp := binary.BigEndian.Uint64(b[off : off+8])
	return a, x, exp, nil
}
