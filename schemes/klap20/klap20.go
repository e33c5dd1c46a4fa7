// Package klap20 extends the bbs04 credential with KLAP20's verifiable
// opening: an ElGamal escrow of the member's long-term
// secret y under the Opener's public key, decryptable only by whoever
// holds the opener secret xi, with a publicly checkable SPK-DLOG of xi
// bound to the opened signature. That proof does not cover the index
// Open returns.
package klap20

import (
	"bytes"
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
	scheme.Register(scheme.KLAP20, Ops{})
}

func Descriptor() scheme.Descriptor {
	return scheme.Descriptor{
		Code:                  scheme.KLAP20,
		Name:                  "KLAP20",
		HasGML:                true,
		UsesPairing:           true,
		HasVerifiableOpenings: true,
		JoinStart:             0,
		JoinSeq:               3,
		IssuerKeyIndex:        0,
		InspectorKeyIndex:     1,
	}
}

// GroupKey is the bbs04 credential group key plus the opener's ElGamal
// base and public key.
type GroupKey struct {
	credential.GroupKey
	EGBase curve.G1
	EGPub  curve.G1 // Z = Y^xi
}

func (g GroupKey) Scheme() scheme.Code { return scheme.KLAP20 }

func (g GroupKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.KLAP20)}
	for _, p := range []curve.G1{g.G1, g.H, g.H1, g.EGBase, g.EGPub} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	for _, p := range []curve.G2{g.G2, g.IPK} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	return buf, nil
}

// ManagerKey bundles the Issuer secret and, once the second Setup call
// runs, the Opener secret xi.
type ManagerKey struct {
	credential.ManagerKey
	XI     curve.Scalar
	HaveXI bool
}

func (m ManagerKey) Scheme() scheme.Code { return scheme.KLAP20 }

func (m ManagerKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.KLAP20)}
	buf = append(buf, mustBytes(m.ISK.MarshalBinary())...)
	buf = append(buf, mustBytes(m.XI.MarshalBinary())...)
	return buf, nil
}

// MemberKey mirrors bbs04's.
type MemberKey struct {
	Y        curve.Scalar
	HaveY    bool
	Cred     credential.Credential
	HaveCred bool
}

func (m MemberKey) Scheme() scheme.Code { return scheme.KLAP20 }
func (m MemberKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.KLAP20)}
	buf = append(buf, mustBytes(m.Y.MarshalBinary())...)
	buf = append(buf, mustBytes(m.Cred.A.MarshalBinary())...)
	buf = append(buf, mustBytes(m.Cred.X.MarshalBinary())...)
	return buf, nil
}

// Signature carries the bbs04-style randomised credential, the escrow
// ciphertext (C1, C2), and the combined 4-equation SPK-REP binding both.
type Signature struct {
	R      credential.Randomized
	C1, C2 curve.G1
	Pi     spk.Rep
}

func (s Signature) Scheme() scheme.Code { return scheme.KLAP20 }

func (s Signature) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.KLAP20)}
	for _, p := range []curve.G1{s.R.AHat, s.R.ATilde, s.R.D, s.R.C, s.C1, s.C2} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	buf = append(buf, mustBytes(s.Pi.C.MarshalBinary())...)
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s.Pi.S)))
	buf = append(buf, n[:]...)
	for _, sc := range s.Pi.S {
		buf = append(buf, mustBytes(sc.MarshalBinary())...)
	}
	return buf, nil
}

// Proof is the opening proof: the opened index plus an SPK-DLOG of the
// Opener's secret xi (EGPub = EGBase^xi) bound to the signature bytes.
// The index is not part of the SPK transcript, and OpenVerify does not
// check it.
type Proof struct {
	Index uint64
	Pi    spk.Dlog
}

func (p Proof) Scheme() scheme.Code { return scheme.KLAP20 }

func (p Proof) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.KLAP20)}
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], p.Index)
	buf = append(buf, idx[:]...)
	buf = append(buf, mustBytes(p.Pi.C.MarshalBinary())...)
	buf = append(buf, mustBytes(p.Pi.S.MarshalBinary())...)
	return buf, nil
}

// Ops implements scheme.Ops and scheme.Opener.
type Ops struct{}

func (Ops) Descriptor() scheme.Descriptor { return Descriptor() }

func (Ops) Setup(grpIn scheme.GroupKey, mgrIn scheme.ManagerKey) (scheme.GroupKey, scheme.ManagerKey, error) {
	if grpIn == nil {
		base, mgr, err := credential.GenerateGroupKey(rand.Reader)
		if err != nil {
			return nil, nil, gserr.New(gserr.CryptoFail, "klap20.Setup", err)
		}
		egBase, err := curve.HashToG1([]byte("groupsig/klap20/eg-base"), []byte("groupsig-dst"))
		if err != nil {
			return nil, nil, gserr.New(gserr.Internal, "klap20.Setup", err)
		}
		return GroupKey{GroupKey: base, EGBase: egBase}, ManagerKey{ManagerKey: mgr}, nil
	}
	// Second call: establish the Opener's keypair.
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, nil, gserr.New(gserr.InvalidArgument, "klap20.Setup", fmt.Errorf("wrong group key type"))
	}
	mgr, ok := mgrIn.(ManagerKey)
	if !ok {
		return nil, nil, gserr.New(gserr.InvalidArgument, "klap20.Setup", fmt.Errorf("wrong manager key type"))
	}
	xi, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, nil, gserr.New(gserr.Internal, "klap20.Setup", err)
	}
	grp.EGPub = grp.EGBase.ScalarMult(xi)
	mgr.XI, mgr.HaveXI = xi, true
	return grp, mgr, nil
}

func (Ops) JoinMember(memIn scheme.MemberKey, seq int, in []byte, grpIn scheme.GroupKey) ([]byte, scheme.MemberKey, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, nil, false, gserr.New(gserr.InvalidArgument, "klap20.JoinMember", fmt.Errorf("wrong group key type"))
	}
	mem, _ := memIn.(MemberKey)

	switch seq {
	case 0:
		y, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "klap20.JoinMember", err)
		}
		f := credential.CommitY(grp.GroupKey, y)
		tau := grp.G1.ScalarMult(y)
		eqs := []spk.Equation{
			{Y: f, Bases: []curve.G1{grp.H}, WitnessIdx: []int{0}},
			{Y: tau, Bases: []curve.G1{grp.G1}, WitnessIdx: []int{0}},
		}
		r0, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "klap20.JoinMember", err)
		}
		pi, err := spk.ProveRep(eqs, []curve.Scalar{y}, []curve.Scalar{r0}, in)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "klap20.JoinMember", err)
		}
		out := marshalJoin1(in, f, tau, pi)
		mem.Y, mem.HaveY = y, true
		return out, mem, false, nil

	case 2:
		if !mem.HaveY {
			return nil, nil, false, gserr.New(gserr.ProtocolFail, "klap20.JoinMember", fmt.Errorf("member has no pending y"))
		}
		a, x, err := unmarshalJoin2(in)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Serialisation, "klap20.JoinMember", err)
		}
		cred := credential.Credential{A: a, X: x}
		ok, err := credential.VerifyCredential(grp.GroupKey, cred, mem.Y)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "klap20.JoinMember", err)
		}
		if !ok {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "klap20.JoinMember", fmt.Errorf("issued credential fails pairing check"))
		}
		mem.Cred, mem.HaveCred = cred, true
		return nil, mem, true, nil
	}
	return nil, nil, false, gserr.New(gserr.ProtocolFail, "klap20.JoinMember", fmt.Errorf("unexpected seq %d", seq))
}

func (Ops) JoinManager(mgrIn scheme.ManagerKey, seq int, in []byte, grpIn scheme.GroupKey, appendGML func(scheme.GMLEntry) (uint64, error)) ([]byte, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "klap20.JoinManager", fmt.Errorf("wrong group key type"))
	}
	mgr, ok := mgrIn.(ManagerKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "klap20.JoinManager", fmt.Errorf("wrong manager key type"))
	}

	switch seq {
	case 0:
		n, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.Internal, "klap20.JoinManager", err)
		}
		return mustBytes(n.MarshalBinary()), false, nil

	case 1:
		nonce, f, tau, pi, err := unmarshalJoin1(in)
		if err != nil {
			return nil, false, gserr.New(gserr.Serialisation, "klap20.JoinManager", err)
		}
		eqs := []spk.Equation{
			{Y: f, Bases: []curve.G1{grp.H}, WitnessIdx: []int{0}},
			{Y: tau, Bases: []curve.G1{grp.G1}, WitnessIdx: []int{0}},
		}
		if !spk.VerifyRep(eqs, nonce, pi) {
			return nil, false, gserr.New(gserr.CryptoFail, "klap20.JoinManager", fmt.Errorf("join SPK-REP rejected"))
		}
		cred, err := credential.Issue(mgr.ManagerKey, grp.GroupKey, f, rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.CryptoFail, "klap20.JoinManager", err)
		}
		if appendGML != nil {
			tb, _ := tau.MarshalBinary()
			if _, err := appendGML(scheme.GMLEntry{SchemeCode: scheme.KLAP20, Trapdoor: tb}); err != nil {
				return nil, false, gserr.New(gserr.Internal, "klap20.JoinManager", err)
			}
		}
		return marshalJoin2(cred.A, cred.X), true, nil
	}
	return nil, true, nil
}

// Sign randomises the credential and additionally escrows g1^y under
// the Opener's public key, binding the escrow into the same SPK-REP.
func (Ops) Sign(memIn scheme.MemberKey, grpIn scheme.GroupKey, msg []byte, opts scheme.SignOptions) (scheme.Signature, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, gserr.New(gserr.InvalidArgument, "klap20.Sign", fmt.Errorf("wrong group key type"))
	}
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveCred {
		return nil, gserr.New(gserr.InvalidArgument, "klap20.Sign", fmt.Errorf("member has no credential"))
	}

	r, x, b, yPrime, err := credential.Randomize(grp.GroupKey, mem.Cred, mem.Y, rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "klap20.Sign", err)
	}
	escrowR, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.Internal, "klap20.Sign", err)
	}
	c1 := grp.EGBase.ScalarMult(escrowR)
	c2 := grp.G1.ScalarMult(mem.Y).Add(grp.EGPub.ScalarMult(escrowR))

	eqs := credential.Equations(r, grp.H, grp.H1)
	eqs = append(eqs,
		spk.Equation{Y: c1, Bases: []curve.G1{grp.EGBase}, WitnessIdx: []int{4}},
		spk.Equation{Y: c2, Bases: []curve.G1{grp.G1, grp.EGPub}, WitnessIdx: []int{3, 4}},
	)
	rx, e1 := curve.RandomScalar(rand.Reader)
	rb, e2 := curve.RandomScalar(rand.Reader)
	ry, e3 := curve.RandomScalar(rand.Reader)
	ryReal, e4 := curve.RandomScalar(rand.Reader)
	rr, e5 := curve.RandomScalar(rand.Reader)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil {
		return nil, gserr.New(gserr.Internal, "klap20.Sign", fmt.Errorf("failed to sample SPK randomisers"))
	}
	witnesses := []curve.Scalar{x, b, yPrime, mem.Y, escrowR}
	rnds := []curve.Scalar{rx, rb, ry, ryReal, rr}
	pi, err := spk.ProveRep(eqs, witnesses, rnds, msg)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "klap20.Sign", err)
	}
	return Signature{R: r, C1: c1, C2: c2, Pi: pi}, nil
}

func (Ops) Verify(sigIn scheme.Signature, msg []byte, grpIn scheme.GroupKey) (bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "klap20.Verify", fmt.Errorf("wrong group key type"))
	}
	sig, ok := sigIn.(Signature)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "klap20.Verify", fmt.Errorf("wrong signature type"))
	}
	eqs := credential.Equations(sig.R, grp.H, grp.H1)
	eqs = append(eqs,
		spk.Equation{Y: sig.C1, Bases: []curve.G1{grp.EGBase}, WitnessIdx: []int{4}},
		spk.Equation{Y: sig.C2, Bases: []curve.G1{grp.G1, grp.EGPub}, WitnessIdx: []int{3, 4}},
	)
	if !spk.VerifyRep(eqs, msg, sig.Pi) {
		return false, nil
	}
	return credential.VerifyPairing(grp.GroupKey, sig.R)
}

// VerifyBatch checks all pairing relations at once as one randomly
// weighted product, then verifies each signature's SPK-REP.
func (o Ops) VerifyBatch(sigs []scheme.Signature, msgs [][]byte, grpIn scheme.GroupKey) (bool, error) {
	if len(sigs) != len(msgs) {
		return false, gserr.New(gserr.InvalidArgument, "klap20.VerifyBatch", fmt.Errorf("sigs/msgs length mismatch"))
	}
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "klap20.VerifyBatch", fmt.Errorf("wrong group key type"))
	}

	aHats := make([]curve.G1, 0, len(sigs))
	aTildes := make([]curve.G1, 0, len(sigs))
	for _, sigIn := range sigs {
		sig, ok := sigIn.(Signature)
		if !ok {
			return false, gserr.New(gserr.InvalidArgument, "klap20.VerifyBatch", fmt.Errorf("wrong signature type"))
		}
		rho, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return false, gserr.New(gserr.Internal, "klap20.VerifyBatch", err)
		}
		aHats = append(aHats, sig.R.AHat.ScalarMult(rho))
		aTildes = append(aTildes, sig.R.ATilde.ScalarMult(rho))
	}
	// Product check: Π e(Âᵢ^ρᵢ, ipk) == Π e(Ãᵢ^ρᵢ, g2) with fresh random
	// ρᵢ. This random-combined pair of multi-pairings replaces len(sigs)
	// independent pairing checks.
	ipks := make([]curve.G2, len(aHats))
	g2s := make([]curve.G2, len(aTildes))
	for i := range ipks {
		ipks[i] = grp.IPK
		g2s[i] = grp.G2
	}
	lhs, err := curve.Pair(aHats, ipks)
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "klap20.VerifyBatch", err)
	}
	rhs, err := curve.Pair(aTildes, g2s)
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "klap20.VerifyBatch", err)
	}
	if !lhs.Equal(rhs) {
		return false, nil
	}
	for i := range sigs {
		eqs := credential.Equations(sigs[i].(Signature).R, grp.H, grp.H1)
		eqs = append(eqs,
			spk.Equation{Y: sigs[i].(Signature).C1, Bases: []curve.G1{grp.EGBase}, WitnessIdx: []int{4}},
			spk.Equation{Y: sigs[i].(Signature).C2, Bases: []curve.G1{grp.G1, grp.EGPub}, WitnessIdx: []int{3, 4}},
		)
		if !spk.VerifyRep(eqs, msgs[i], sigs[i].(Signature).Pi) {
			return false, nil
		}
	}
	return true, nil
}

// Open decrypts the escrow, linear-scans the GML, and produces a
// verifiable-opening SPK-DLOG.
func (Ops) Open(sigIn scheme.Signature, grpIn scheme.GroupKey, mgrIn scheme.ManagerKey, entries []scheme.GMLEntry) (uint64, scheme.Proof, scheme.OpenStatus, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return 0, nil, scheme.OpenFail, gserr.New(gserr.InvalidArgument, "klap20.Open", fmt.Errorf("wrong group key type"))
	}
	mgr, ok := mgrIn.(ManagerKey)
	if !ok || !mgr.HaveXI {
		return 0, nil, scheme.OpenFail, gserr.New(gserr.InvalidArgument, "klap20.Open", fmt.Errorf("manager key has no opener secret"))
	}
	sig, ok := sigIn.(Signature)
	if !ok {
		return 0, nil, scheme.OpenFail, gserr.New(gserr.InvalidArgument, "klap20.Open", fmt.Errorf("wrong signature type"))
	}

	tauHat := sig.C2.Add(sig.C1.ScalarMult(mgr.XI.Neg()))
	tauHatBytes := mustBytes(tauHat.MarshalBinary())

	var idx uint64
	var found bool
	for _, e := range entries {
		if e.SchemeCode != scheme.KLAP20 {
			continue
		}
		if bytes.Equal(e.Trapdoor, tauHatBytes) {
			idx, found = e.Index, true
			break
		}
	}
	if !found {
		return 0, nil, scheme.OpenFail, nil
	}

	rnd, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return 0, nil, scheme.OpenFail, gserr.New(gserr.Internal, "klap20.Open", err)
	}
	sigBytes, _ := sig.MarshalBinary()
	openPi, err := spk.ProveDlog(grp.EGBase, grp.EGPub, mgr.XI, sigBytes, rnd)
	if err != nil {
		return 0, nil, scheme.OpenFail, gserr.New(gserr.CryptoFail, "klap20.Open", err)
	}
	return idx, Proof{Index: idx, Pi: openPi}, scheme.OpenOK, nil
}

func (Ops) OpenVerify(proofIn scheme.Proof, sigIn scheme.Signature, grpIn scheme.GroupKey) (bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "klap20.OpenVerify", fmt.Errorf("wrong group key type"))
	}
	proof, ok := proofIn.(Proof)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "klap20.OpenVerify", fmt.Errorf("wrong proof type"))
	}
	sig, ok := sigIn.(Signature)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "klap20.OpenVerify", fmt.Errorf("wrong signature type"))
	}
	sigBytes, _ := sig.MarshalBinary()
	return spk.VerifyDlog(grp.EGBase, grp.EGPub, sigBytes, proof.Pi), nil
}

func (Ops) ImportGroupKey(b []byte) (scheme.GroupKey, error) {
	if len(b) < 1 {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportGroupKey", fmt.Errorf("empty buffer"))
	}
	off := 1
	var g1, h, h1, egBase, egPub curve.G1
	for _, p := range []*curve.G1{&g1, &h, &h1, &egBase, &egPub} {
		if off+g1Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "klap20.ImportGroupKey", fmt.Errorf("short buffer"))
		}
		if err := p.UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "klap20.ImportGroupKey", err)
		}
		off += g1Size
	}
	var g2, ipk curve.G2
	for _, p := range []*curve.G2{&g2, &ipk} {
		if off+g2Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "klap20.ImportGroupKey", fmt.Errorf("short buffer"))
		}
		if err := p.UnmarshalBinary(b[off : off+g2Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "klap20.ImportGroupKey", err)
		}
		off += g2Size
	}
	return GroupKey{
		GroupKey: credential.GroupKey{G1: g1, H: h, H1: h1, G2: g2, IPK: ipk},
		EGBase:   egBase,
		EGPub:    egPub,
	}, nil
}

func (Ops) ImportManagerKey(b []byte) (scheme.ManagerKey, error) {
	if len(b) < 1+2*fr32 {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportManagerKey", fmt.Errorf("short buffer"))
	}
	isk, off, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportManagerKey", err)
	}
	xi, _, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportManagerKey", err)
	}
	return ManagerKey{ManagerKey: credential.ManagerKey{ISK: isk}, XI: xi, HaveXI: true}, nil
}

func (Ops) ImportMemberKey(b []byte) (scheme.MemberKey, error) {
	y, off, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportMemberKey", err)
	}
	var a curve.G1
	if off+g1Size > len(b) {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportMemberKey", fmt.Errorf("short buffer"))
	}
	if err := a.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportMemberKey", err)
	}
	off += g1Size
	x, _, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportMemberKey", err)
	}
	return MemberKey{Y: y, HaveY: true, Cred: credential.Credential{A: a, X: x}, HaveCred: true}, nil
}

func (Ops) ImportSignature(b []byte) (scheme.Signature, error) {
	if len(b) < 1 {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportSignature", fmt.Errorf("empty buffer"))
	}
	off := 1
	pts := make([]curve.G1, 6)
	for i := range pts {
		if off+g1Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "klap20.ImportSignature", fmt.Errorf("short buffer"))
		}
		if err := pts[i].UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "klap20.ImportSignature", err)
		}
		off += g1Size
	}
	c, off, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportSignature", err)
	}
	if off+4 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportSignature", fmt.Errorf("short buffer"))
	}
	n := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	s := make([]curve.Scalar, n)
	for i := range s {
		var sc curve.Scalar
		sc, off, err = readScalar(b, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "klap20.ImportSignature", err)
		}
		s[i] = sc
	}
	r := credential.Randomized{AHat: pts[0], ATilde: pts[1], D: pts[2], C: pts[3]}
	return Signature{R: r, C1: pts[4], C2: pts[5], Pi: spk.Rep{C: c, S: s}}, nil
}

func (Ops) ImportProof(b []byte) (scheme.Proof, error) {
	if len(b) < 1+8+2*fr32 {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportProof", fmt.Errorf("short buffer"))
	}
	idx := binary.BigEndian.Uint64(b[1:9])
	c, off, err := readScalar(b, 9)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportProof", err)
	}
	s, _, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "klap20.ImportProof", err)
	}
	return Proof{Index: idx, Pi: spk.Dlog{C: c, S: s}}, nil
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

// The member echoes the Issuer's nonce n' so the Issuer can rebuild
// the transcript the join SPK-REP was bound to.
func marshalJoin1(n []byte, f, tau curve.G1, pi spk.Rep) []byte {
	var nl [4]byte
	binary.BigEndian.PutUint32(nl[:], uint32(len(n)))
	buf := append(nl[:], n...)
	buf = append(buf, mustBytes(f.MarshalBinary())...)
	buf = append(buf, mustBytes(tau.MarshalBinary())...)
	buf = append(buf, mustBytes(pi.C.MarshalBinary())...)
	var sl [4]byte
	binary.BigEndian.PutUint32(sl[:], uint32(len(pi.S)))
	buf = append(buf, sl[:]...)
	for _, s := range pi.S {
		buf = append(buf, mustBytes(s.MarshalBinary())...)
	}
	return buf
}

func unmarshalJoin1(b []byte) ([]byte, curve.G1, curve.G1, spk.Rep, error) {
	if len(b) < 4 {
		return nil, curve.G1{}, curve.G1{}, spk.Rep{}, fmt.Errorf("short join1 message")
	}
	nLen := int(binary.BigEndian.Uint32(b[:4]))
	off := 4
	if off+nLen+2*g1Size+fr32+4 > len(b) {
		return nil, curve.G1{}, curve.G1{}, spk.Rep{}, fmt.Errorf("short join1 message")
	}
	nonce := b[off : off+nLen]
	off += nLen
	var f, tau curve.G1
	if err := f.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, curve.G1{}, curve.G1{}, spk.Rep{}, err
	}
	off += g1Size
	if err := tau.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, curve.G1{}, curve.G1{}, spk.Rep{}, err
	}
	off += g1Size
	c, off, err := readScalar(b, off)
	if err != nil {
		return nil, curve.G1{}, curve.G1{}, spk.Rep{}, err
	}
	if off+4 > len(b) {
		return nil, curve.G1{}, curve.G1{}, spk.Rep{}, fmt.Errorf("short join1 message")
	}
	n := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	s := make([]curve.Scalar, n)
	for i := range s {
		var sc curve.Scalar
		sc, off, err = readScalar(b, off)
		if err != nil {
			return nil, curve.G1{}, curve.G1{}, spk.Rep{}, err
		}
		s[i] = sc
	}
	return nonce, f, tau, spk.Rep{C: c, S: s}, nil
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
