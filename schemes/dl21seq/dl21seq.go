// Package dl21seq extends dl21 with a sequential-link chain: every
// signature carries a (seq1, seq2, seq3) triple derived from the
// member's PRF key pair (k, k'), with seq3 = PRF(k, i),
// seq1 = H(k' | PRF(k, seq3)) and
// seq2 = H(k' | PRF(k, seq3) xor H(k | PRF(k, i-1))) for the signer's
// counter i. The member proves an ordering with SeqLink, whose proof
// reveals the per-signature chain openings; VerifySeqLink checks the
// chain against them with no secret key.
package dl21seq

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/luxfi/groupsig/internal/credential"
	"github.com/luxfi/groupsig/pkg/curve"
	"github.com/luxfi/groupsig/pkg/gserr"
	"github.com/luxfi/groupsig/pkg/scheme"
	"github.com/luxfi/groupsig/pkg/spk"
)

func init() {
	scheme.Register(scheme.DL21SEQ, Ops{})
}

func Descriptor() scheme.Descriptor {
	return scheme.Descriptor{
		Code:           scheme.DL21SEQ,
		Name:           "DL21-SEQ",
		HasGML:         false,
		UsesPairing:    true,
		JoinStart:      0,
		JoinSeq:        3,
		IssuerKeyIndex: 0,
	}
}

const keyLen = 32

type GroupKey struct {
	credential.GroupKey
}

func (g GroupKey) Scheme() scheme.Code { return scheme.DL21SEQ }
func (g GroupKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.DL21SEQ)}
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

func (m ManagerKey) Scheme() scheme.Code { return scheme.DL21SEQ }
func (m ManagerKey) MarshalBinary() ([]byte, error) {
	return append([]byte{byte(scheme.DL21SEQ)}, mustBytes(m.ISK.MarshalBinary())...), nil
}

// MemberKey adds the PRF key pair (K, Kp) and the caller-persisted
// sequence counter to dl21's credential state. SeqCounter is owned and
// persisted by the caller exactly like Y, A and x already are; the
// library performs no I/O. Sign treats SeqCounter as the index of the
// signature about to be produced, so the caller must increment it
// (starting at 1) on their own copy of MemberKey before each Sign
// call.
type MemberKey struct {
	Y          curve.Scalar
	HaveY      bool
	Cred       credential.Credential
	HaveCred   bool
	K, Kp      []byte
	SeqCounter uint64
}

func (m MemberKey) Scheme() scheme.Code { return scheme.DL21SEQ }
func (m MemberKey) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.DL21SEQ)}
	buf = append(buf, mustBytes(m.Y.MarshalBinary())...)
	buf = append(buf, mustBytes(m.Cred.A.MarshalBinary())...)
	buf = append(buf, mustBytes(m.Cred.X.MarshalBinary())...)
	buf = append(buf, m.K...)
	buf = append(buf, m.Kp...)
	buf = appendUint64(buf, m.SeqCounter)
	return buf, nil
}

// Signature adds the (seq1, seq2, seq3) chain triple to dl21's shape.
type Signature struct {
	R                credential.Randomized
	Nym              curve.G1
	Scope            []byte
	Seq1, Seq2, Seq3 []byte
	Pi               spk.Rep
}

func (s Signature) Scheme() scheme.Code { return scheme.DL21SEQ }
func (s Signature) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.DL21SEQ)}
	for _, p := range []curve.G1{s.R.AHat, s.R.ATilde, s.R.D, s.R.C, s.Nym} {
		buf = append(buf, mustBytes(p.MarshalBinary())...)
	}
	buf = appendBlob(buf, s.Scope)
	buf = appendBlob(buf, s.Seq1)
	buf = appendBlob(buf, s.Seq2)
	buf = appendBlob(buf, s.Seq3)
	buf = append(buf, mustBytes(s.Pi.C.MarshalBinary())...)
	buf = appendUint32(buf, uint32(len(s.Pi.S)))
	for _, sc := range s.Pi.S {
		buf = append(buf, mustBytes(sc.MarshalBinary())...)
	}
	return buf, nil
}

// Proof forms. A one-byte tag after the scheme code tells the link
// proof (dl21's shared-witness SPK-DLOG conjunction, reused unchanged)
// apart from the sequential-link proof.
const (
	proofFormLink byte = 0
	proofFormSeq  byte = 1
)

// Proof is the shared-witness SPK-DLOG conjunction dl21's Link
// produces; DL21-SEQ reuses it unchanged for Identify/Link/VerifyLink.
type Proof struct {
	Pi spk.Rep
}

func (p Proof) Scheme() scheme.Code { return scheme.DL21SEQ }
func (p Proof) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.DL21SEQ), proofFormLink}
	buf = append(buf, mustBytes(p.Pi.C.MarshalBinary())...)
	buf = appendUint32(buf, uint32(len(p.Pi.S)))
	for _, sc := range p.Pi.S {
		buf = append(buf, mustBytes(sc.MarshalBinary())...)
	}
	return buf, nil
}

// SeqProof is the sequential-link proof: the same link SPK plus the
// member's chain verification key k' and the per-signature chain
// openings x_i = PRF(k, seq3_i). Producing one deliberately reveals
// the ordering of the covered signatures; the openings let any
// verifier recheck the chain without the member's PRF key k.
type SeqProof struct {
	Pi spk.Rep
	Kp []byte
	X  [][]byte
}

func (p SeqProof) Scheme() scheme.Code { return scheme.DL21SEQ }
func (p SeqProof) MarshalBinary() ([]byte, error) {
	buf := []byte{byte(scheme.DL21SEQ), proofFormSeq}
	buf = append(buf, mustBytes(p.Pi.C.MarshalBinary())...)
	buf = appendUint32(buf, uint32(len(p.Pi.S)))
	for _, sc := range p.Pi.S {
		buf = append(buf, mustBytes(sc.MarshalBinary())...)
	}
	buf = appendBlob(buf, p.Kp)
	buf = appendUint32(buf, uint32(len(p.X)))
	for _, x := range p.X {
		buf = appendBlob(buf, x)
	}
	return buf, nil
}

type Ops struct{}

func (Ops) Descriptor() scheme.Descriptor { return Descriptor() }

func (Ops) Setup(grpIn scheme.GroupKey, mgrIn scheme.ManagerKey) (scheme.GroupKey, scheme.ManagerKey, error) {
	grp, mgr, err := credential.GenerateGroupKey(rand.Reader)
	if err != nil {
		return nil, nil, gserr.New(gserr.CryptoFail, "dl21seq.Setup", err)
	}
	return GroupKey{grp}, ManagerKey{mgr}, nil
}

func (Ops) JoinMember(memIn scheme.MemberKey, seq int, in []byte, grpIn scheme.GroupKey) ([]byte, scheme.MemberKey, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, nil, false, gserr.New(gserr.InvalidArgument, "dl21seq.JoinMember", fmt.Errorf("wrong group key type"))
	}
	mem, _ := memIn.(MemberKey)

	switch seq {
	case 0:
		y, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "dl21seq.JoinMember", err)
		}
		f := credential.CommitY(grp.GroupKey, y)
		r, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "dl21seq.JoinMember", err)
		}
		pi, err := spk.ProveDlog(grp.H, f, y, in, r)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "dl21seq.JoinMember", err)
		}
		mem.Y, mem.HaveY = y, true
		return marshalJoin1(in, f, pi), mem, false, nil

	case 2:
		if !mem.HaveY {
			return nil, nil, false, gserr.New(gserr.ProtocolFail, "dl21seq.JoinMember", fmt.Errorf("member has no pending y"))
		}
		a, x, err := unmarshalJoin2(in)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.Serialisation, "dl21seq.JoinMember", err)
		}
		cred := credential.Credential{A: a, X: x}
		ok, err := credential.VerifyCredential(grp.GroupKey, cred, mem.Y)
		if err != nil {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "dl21seq.JoinMember", err)
		}
		if !ok {
			return nil, nil, false, gserr.New(gserr.CryptoFail, "dl21seq.JoinMember", fmt.Errorf("issued credential fails pairing check"))
		}
		k := make([]byte, keyLen)
		kp := make([]byte, keyLen)
		if _, err := rand.Read(k); err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "dl21seq.JoinMember", err)
		}
		if _, err := rand.Read(kp); err != nil {
			return nil, nil, false, gserr.New(gserr.Internal, "dl21seq.JoinMember", err)
		}
		mem.Cred, mem.HaveCred = cred, true
		mem.K, mem.Kp, mem.SeqCounter = k, kp, 0
		return nil, mem, true, nil
	}
	return nil, nil, false, gserr.New(gserr.ProtocolFail, "dl21seq.JoinMember", fmt.Errorf("unexpected seq %d", seq))
}

func (Ops) JoinManager(mgrIn scheme.ManagerKey, seq int, in []byte, grpIn scheme.GroupKey, appendGML func(scheme.GMLEntry) (uint64, error)) ([]byte, bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "dl21seq.JoinManager", fmt.Errorf("wrong group key type"))
	}
	mgr, ok := mgrIn.(ManagerKey)
	if !ok {
		return nil, false, gserr.New(gserr.InvalidArgument, "dl21seq.JoinManager", fmt.Errorf("wrong manager key type"))
	}

	switch seq {
	case 0:
		n, err := curve.RandomScalar(rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.Internal, "dl21seq.JoinManager", err)
		}
		return mustBytes(n.MarshalBinary()), false, nil

	case 1:
		n, f, pi, err := unmarshalJoin1(in)
		if err != nil {
			return nil, false, gserr.New(gserr.Serialisation, "dl21seq.JoinManager", err)
		}
		if !spk.VerifyDlog(grp.H, f, n, pi) {
			return nil, false, gserr.New(gserr.CryptoFail, "dl21seq.JoinManager", fmt.Errorf("join SPK-DLOG rejected"))
		}
		cred, err := credential.Issue(mgr.ManagerKey, grp.GroupKey, f, rand.Reader)
		if err != nil {
			return nil, false, gserr.New(gserr.CryptoFail, "dl21seq.JoinManager", err)
		}
		return marshalJoin2(cred.A, cred.X), true, nil
	}
	return nil, true, nil
}

func scopeBase(scope []byte) (curve.G1, error) {
	return curve.HashToG1(scope, []byte("groupsig-dst"))
}

func h(parts ...[]byte) []byte {
	hasher := blake3.New()
	for _, p := range parts {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)))
		hasher.Write(lenBuf[:])
		hasher.Write(p)
	}
	d := hasher.Digest()
	out := make([]byte, 32)
	d.Read(out)
	return out
}

// prf is the member's pseudorandom function, instantiated as keyed
// BLAKE3 over the length-prefixed input. The keyed-hash construction
// H(k | m) used by the chain and this PRF are the same primitive, so
// the Sign-side term H(k | PRF(k, i-1)) equals PRF(k, seq3_{i-1}),
// the previous signature's chain opening x_{i-1}; that is what makes
// the revealed openings in a SeqProof sufficient to check the chain.
func prf(k, m []byte) []byte {
	return h(k, m)
}

// ctrBytes is the fixed-width PRF input for a counter value.
func ctrBytes(i uint64) []byte {
	var ib [8]byte
	binary.BigEndian.PutUint64(ib[:], i)
	return ib[:]
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// chainValues derives the published (seq1, seq2, seq3) triple for
// counter value i: seq3 = PRF(k, i), seq1 = H(k' | PRF(k, seq3)),
// seq2 = H(k' | PRF(k, seq3) xor H(k | PRF(k, i-1))).
func chainValues(k, kp []byte, i uint64) (seq1, seq2, seq3 []byte) {
	seq3 = prf(k, ctrBytes(i))
	x := prf(k, seq3)
	seq1 = h(kp, x)
	w := h(k, prf(k, ctrBytes(i-1)))
	seq2 = h(kp, xorBytes(x, w))
	return seq1, seq2, seq3
}

func (Ops) Sign(memIn scheme.MemberKey, grpIn scheme.GroupKey, msg []byte, opts scheme.SignOptions) (scheme.Signature, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return nil, gserr.New(gserr.InvalidArgument, "dl21seq.Sign", fmt.Errorf("wrong group key type"))
	}
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveCred {
		return nil, gserr.New(gserr.InvalidArgument, "dl21seq.Sign", fmt.Errorf("member has no credential"))
	}
	if len(opts.Scope) == 0 {
		return nil, gserr.New(gserr.InvalidArgument, "dl21seq.Sign", fmt.Errorf("DL21-SEQ requires a non-empty scope"))
	}

	base, err := scopeBase(opts.Scope)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "dl21seq.Sign", err)
	}
	nym := base.ScalarMult(mem.Y)

	seq1, seq2, seq3 := chainValues(mem.K, mem.Kp, mem.SeqCounter)

	r, x, b, yPrime, err := credential.Randomize(grp.GroupKey, mem.Cred, mem.Y, rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "dl21seq.Sign", err)
	}
	eqs := credential.Equations(r, grp.H, grp.H1)
	eqs = append(eqs, spk.Equation{Y: nym, Bases: []curve.G1{base}, WitnessIdx: []int{3}})

	rx, e1 := curve.RandomScalar(rand.Reader)
	rb, e2 := curve.RandomScalar(rand.Reader)
	ry, e3 := curve.RandomScalar(rand.Reader)
	ryReal, e4 := curve.RandomScalar(rand.Reader)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
		return nil, gserr.New(gserr.Internal, "dl21seq.Sign", fmt.Errorf("failed to sample SPK randomisers"))
	}
	pi, err := spk.ProveRep(eqs, []curve.Scalar{x, b, yPrime, mem.Y}, []curve.Scalar{rx, rb, ry, ryReal}, msg)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "dl21seq.Sign", err)
	}
	scope := append([]byte(nil), opts.Scope...)
	return Signature{R: r, Nym: nym, Scope: scope, Seq1: seq1, Seq2: seq2, Seq3: seq3, Pi: pi}, nil
}

func (Ops) Verify(sigIn scheme.Signature, msg []byte, grpIn scheme.GroupKey) (bool, error) {
	grp, ok := grpIn.(GroupKey)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "dl21seq.Verify", fmt.Errorf("wrong group key type"))
	}
	sig, ok := sigIn.(Signature)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "dl21seq.Verify", fmt.Errorf("wrong signature type"))
	}
	base, err := scopeBase(sig.Scope)
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "dl21seq.Verify", err)
	}
	eqs := credential.Equations(sig.R, grp.H, grp.H1)
	eqs = append(eqs, spk.Equation{Y: sig.Nym, Bases: []curve.G1{base}, WitnessIdx: []int{3}})
	if !spk.VerifyRep(eqs, msg, sig.Pi) {
		return false, nil
	}
	return credential.VerifyPairing(grp.GroupKey, sig.R)
}

func (o Ops) VerifyBatch(sigs []scheme.Signature, msgs [][]byte, grpIn scheme.GroupKey) (bool, error) {
	if len(sigs) != len(msgs) {
		return false, gserr.New(gserr.InvalidArgument, "dl21seq.VerifyBatch", fmt.Errorf("sigs/msgs length mismatch"))
	}
	for i := range sigs {
		ok, err := o.Verify(sigs[i], msgs[i], grpIn)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (Ops) Identify(grpIn scheme.GroupKey, memIn scheme.MemberKey, sigIn scheme.Signature, msg []byte) (bool, error) {
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveY {
		return false, gserr.New(gserr.InvalidArgument, "dl21seq.Identify", fmt.Errorf("member has no y"))
	}
	sig, ok := sigIn.(Signature)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "dl21seq.Identify", fmt.Errorf("wrong signature type"))
	}
	base, err := scopeBase(sig.Scope)
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "dl21seq.Identify", err)
	}
	want := base.ScalarMult(mem.Y)
	return want.Equal(sig.Nym), nil
}

func (Ops) Link(grpIn scheme.GroupKey, memIn scheme.MemberKey, msg []byte, sigs []scheme.Signature, msgs [][]byte) (scheme.Proof, error) {
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveY {
		return nil, gserr.New(gserr.InvalidArgument, "dl21seq.Link", fmt.Errorf("member has no y"))
	}
	if len(sigs) == 0 || len(sigs) != len(msgs) {
		return nil, gserr.New(gserr.InvalidArgument, "dl21seq.Link", fmt.Errorf("sigs/msgs must be non-empty and equal length"))
	}
	eqs := make([]spk.Equation, 0, len(sigs))
	for _, sIn := range sigs {
		s, ok := sIn.(Signature)
		if !ok {
			return nil, gserr.New(gserr.InvalidArgument, "dl21seq.Link", fmt.Errorf("wrong signature type"))
		}
		base, err := scopeBase(s.Scope)
		if err != nil {
			return nil, gserr.New(gserr.CryptoFail, "dl21seq.Link", err)
		}
		eqs = append(eqs, spk.Equation{Y: s.Nym, Bases: []curve.G1{base}, WitnessIdx: []int{0}})
	}
	r0, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.Internal, "dl21seq.Link", err)
	}
	pi, err := spk.ProveRep(eqs, []curve.Scalar{mem.Y}, []curve.Scalar{r0}, msg)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "dl21seq.Link", err)
	}
	return Proof{Pi: pi}, nil
}

func (o Ops) VerifyLink(proofIn scheme.Proof, grpIn scheme.GroupKey, msg []byte, sigs []scheme.Signature, msgs [][]byte) (bool, error) {
	proof, ok := proofIn.(Proof)
	if !ok {
		return false, gserr.New(gserr.InvalidArgument, "dl21seq.VerifyLink", fmt.Errorf("wrong proof type"))
	}
	if len(sigs) == 0 || len(sigs) != len(msgs) {
		return false, gserr.New(gserr.InvalidArgument, "dl21seq.VerifyLink", fmt.Errorf("sigs/msgs must be non-empty and equal length"))
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
			return false, gserr.New(gserr.CryptoFail, "dl21seq.VerifyLink", err)
		}
		eqs = append(eqs, spk.Equation{Y: s.Nym, Bases: []curve.G1{base}, WitnessIdx: []int{0}})
	}
	return spk.VerifyRep(eqs, msg, proof.Pi), nil
}

// SeqLink implements the member side of scheme.SequentialLinker: the
// member checks every signature is its own, recomputes the chain
// openings x_i = PRF(k, seq3_i), and emits them alongside the link SPK
// and the chain key k'. Only the member can produce the openings (they
// need k), which is what makes a verified chain attributable to the
// signer rather than to anyone holding the signatures.
func (o Ops) SeqLink(grpIn scheme.GroupKey, memIn scheme.MemberKey, msg []byte, sigs []scheme.Signature, msgs [][]byte) (scheme.Proof, error) {
	mem, ok := memIn.(MemberKey)
	if !ok || !mem.HaveY {
		return nil, gserr.New(gserr.InvalidArgument, "dl21seq.SeqLink", fmt.Errorf("member has no y"))
	}
	if len(sigs) == 0 || len(sigs) != len(msgs) {
		return nil, gserr.New(gserr.InvalidArgument, "dl21seq.SeqLink", fmt.Errorf("sigs/msgs must be non-empty and equal length"))
	}
	eqs := make([]spk.Equation, 0, len(sigs))
	xs := make([][]byte, len(sigs))
	for i, sIn := range sigs {
		s, ok := sIn.(Signature)
		if !ok {
			return nil, gserr.New(gserr.InvalidArgument, "dl21seq.SeqLink", fmt.Errorf("wrong signature type at index %d", i))
		}
		base, err := scopeBase(s.Scope)
		if err != nil {
			return nil, gserr.New(gserr.CryptoFail, "dl21seq.SeqLink", err)
		}
		if !base.ScalarMult(mem.Y).Equal(s.Nym) {
			return nil, gserr.New(gserr.InvalidArgument, "dl21seq.SeqLink", fmt.Errorf("signature at index %d is not the caller's", i))
		}
		eqs = append(eqs, spk.Equation{Y: s.Nym, Bases: []curve.G1{base}, WitnessIdx: []int{0}})
		xs[i] = prf(mem.K, s.Seq3)
	}
	r0, err := curve.RandomScalar(rand.Reader)
	if err != nil {
		return nil, gserr.New(gserr.Internal, "dl21seq.SeqLink", err)
	}
	pi, err := spk.ProveRep(eqs, []curve.Scalar{mem.Y}, []curve.Scalar{r0}, msg)
	if err != nil {
		return nil, gserr.New(gserr.CryptoFail, "dl21seq.SeqLink", err)
	}
	return SeqProof{Pi: pi, Kp: append([]byte(nil), mem.Kp...), X: xs}, nil
}

// VerifySeqLink verifies a SeqProof without any secret key: every
// signature standalone, the link SPK (all by one member), then the
// chain. Each opening is pinned by seq1_i = H(k' || x_i), and each
// adjacent pair must satisfy seq2_i = H(k' || x_i xor x_{i-1}); the
// Sign-side term H(k || PRF(k, i-1)) is exactly the predecessor's
// opening, so a substituted or reordered signature breaks the pair
// check at its position. brokenAt is the index of the first failing
// signature; it is -1 when the whole chain verifies, when the arguments
// are malformed, and when the link SPK is rejected.
func (o Ops) VerifySeqLink(proofIn scheme.Proof, grpIn scheme.GroupKey, msg []byte, sigs []scheme.Signature, msgs [][]byte) (bool, int, error) {
	proof, ok := proofIn.(SeqProof)
	if !ok {
		return false, -1, gserr.New(gserr.InvalidArgument, "dl21seq.VerifySeqLink", fmt.Errorf("wrong proof type"))
	}
	if len(sigs) == 0 || len(sigs) != len(msgs) {
		return false, -1, gserr.New(gserr.InvalidArgument, "dl21seq.VerifySeqLink", fmt.Errorf("sigs/msgs must be non-empty and equal length"))
	}
	if len(proof.X) != len(sigs) {
		return false, -1, gserr.New(gserr.InvalidArgument, "dl21seq.VerifySeqLink", fmt.Errorf("proof covers %d signatures, got %d", len(proof.X), len(sigs)))
	}
	eqs := make([]spk.Equation, 0, len(sigs))
	typed := make([]Signature, len(sigs))
	for i, sIn := range sigs {
		s, ok := sIn.(Signature)
		if !ok {
			return false, i, gserr.New(gserr.InvalidArgument, "dl21seq.VerifySeqLink", fmt.Errorf("wrong signature type at index %d", i))
		}
		ok2, err := o.Verify(s, msgs[i], grpIn)
		if err != nil {
			return false, i, err
		}
		if !ok2 {
			return false, i, nil
		}
		base, err := scopeBase(s.Scope)
		if err != nil {
			return false, i, gserr.New(gserr.CryptoFail, "dl21seq.VerifySeqLink", err)
		}
		eqs = append(eqs, spk.Equation{Y: s.Nym, Bases: []curve.G1{base}, WitnessIdx: []int{0}})
		typed[i] = s
	}
	if !spk.VerifyRep(eqs, msg, proof.Pi) {
		return false, -1, nil
	}
	for i := range typed {
		if !bytes.Equal(typed[i].Seq1, h(proof.Kp, proof.X[i])) {
			return false, i, nil
		}
	}
	for i := 1; i < len(typed); i++ {
		expect := h(proof.Kp, xorBytes(proof.X[i], proof.X[i-1]))
		if !bytes.Equal(expect, typed[i].Seq2) {
			return false, i, nil
		}
	}
	return true, -1, nil
}

func (Ops) ImportGroupKey(b []byte) (scheme.GroupKey, error) {
	if len(b) < 1 {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportGroupKey", fmt.Errorf("empty buffer"))
	}
	off := 1
	var g1, hh, h1 curve.G1
	for _, p := range []*curve.G1{&g1, &hh, &h1} {
		if off+g1Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportGroupKey", fmt.Errorf("short buffer"))
		}
		if err := p.UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportGroupKey", err)
		}
		off += g1Size
	}
	var g2, ipk curve.G2
	for _, p := range []*curve.G2{&g2, &ipk} {
		if off+g2Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportGroupKey", fmt.Errorf("short buffer"))
		}
		if err := p.UnmarshalBinary(b[off : off+g2Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportGroupKey", err)
		}
		off += g2Size
	}
	return GroupKey{credential.GroupKey{G1: g1, H: hh, H1: h1, G2: g2, IPK: ipk}}, nil
}

func (Ops) ImportManagerKey(b []byte) (scheme.ManagerKey, error) {
	isk, _, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportManagerKey", err)
	}
	return ManagerKey{credential.ManagerKey{ISK: isk}}, nil
}

func (Ops) ImportMemberKey(b []byte) (scheme.MemberKey, error) {
	y, off, err := readScalar(b, 1)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportMemberKey", err)
	}
	var a curve.G1
	if off+g1Size > len(b) {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportMemberKey", fmt.Errorf("short buffer"))
	}
	if err := a.UnmarshalBinary(b[off : off+g1Size]); err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportMemberKey", err)
	}
	off += g1Size
	x, off, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportMemberKey", err)
	}
	if off+2*keyLen+8 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportMemberKey", fmt.Errorf("short buffer"))
	}
	k := append([]byte(nil), b[off:off+keyLen]...)
	off += keyLen
	kp := append([]byte(nil), b[off:off+keyLen]...)
	off += keyLen
	counter := binary.BigEndian.Uint64(b[off : off+8])
	return MemberKey{Y: y, HaveY: true, Cred: credential.Credential{A: a, X: x}, HaveCred: true, K: k, Kp: kp, SeqCounter: counter}, nil
}

func (Ops) ImportSignature(b []byte) (scheme.Signature, error) {
	if len(b) < 1 {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportSignature", fmt.Errorf("empty buffer"))
	}
	off := 1
	pts := make([]curve.G1, 5)
	for i := range pts {
		if off+g1Size > len(b) {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportSignature", fmt.Errorf("short buffer"))
		}
		if err := pts[i].UnmarshalBinary(b[off : off+g1Size]); err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportSignature", err)
		}
		off += g1Size
	}
	var blobs [4][]byte
	var err error
	for i := range blobs {
		blobs[i], off, err = readBlob(b, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportSignature", err)
		}
	}
	c, off, err := readScalar(b, off)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportSignature", err)
	}
	if off+4 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportSignature", fmt.Errorf("short buffer"))
	}
	n := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	s := make([]curve.Scalar, n)
	for i := range s {
		var sc curve.Scalar
		sc, off, err = readScalar(b, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportSignature", err)
		}
		s[i] = sc
	}
	r := credential.Randomized{AHat: pts[0], ATilde: pts[1], D: pts[2], C: pts[3]}
	return Signature{R: r, Nym: pts[4], Scope: blobs[0], Seq1: blobs[1], Seq2: blobs[2], Seq3: blobs[3], Pi: spk.Rep{C: c, S: s}}, nil
}

func (Ops) ImportProof(b []byte) (scheme.Proof, error) {
	if len(b) < 2 {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportProof", fmt.Errorf("short buffer"))
	}
	form := b[1]
	c, off, err := readScalar(b, 2)
	if err != nil {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportProof", err)
	}
	if off+4 > len(b) {
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportProof", fmt.Errorf("short buffer"))
	}
	n := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	s := make([]curve.Scalar, n)
	for i := range s {
		var sc curve.Scalar
		sc, off, err = readScalar(b, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportProof", err)
		}
		s[i] = sc
	}
	pi := spk.Rep{C: c, S: s}
	switch form {
	case proofFormLink:
		return Proof{Pi: pi}, nil
	case proofFormSeq:
		kp, off, err := readBlob(b, off)
		if err != nil {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportProof", err)
		}
		if off+4 > len(b) {
			return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportProof", fmt.Errorf("short buffer"))
		}
		count := binary.BigEndian.Uint32(b[off : off+4])
		off += 4
		xs := make([][]byte, count)
		for i := range xs {
			xs[i], off, err = readBlob(b, off)
			if err != nil {
				return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportProof", err)
			}
		}
		return SeqProof{Pi: pi, Kp: kp, X: xs}, nil
	default:
		return nil, gserr.New(gserr.Serialisation, "dl21seq.ImportProof", fmt.Errorf("unknown proof form %d", form))
	}
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

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendBlob(buf, blob []byte) []byte {
	buf = appendUint32(buf, uint32(len(blob)))
	return append(buf, blob...)
}

func readBlob(b []byte, off int) ([]byte, int, error) {
	if off+4 > len(b) {
		return nil, off, fmt.Errorf("short buffer reading blob length")
	}
	n := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	if off+int(n) > len(b) {
		return nil, off, fmt.Errorf("short buffer reading blob")
	}
	out := append([]byte(nil), b[off:off+int(n)]...)
	return out, off + int(n), nil
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
