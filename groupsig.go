// Package groupsig is the public façade of the library: thin, uniform
// entry points that resolve a scheme code's handle via pkg/scheme and
// delegate, rejecting mixed-scheme inputs before doing so. Callers
// import groupsig plus the scheme packages they need registered (via
// blank import, see schemes/bbs04's init()).
package groupsig

import (
	"fmt"

	"github.com/luxfi/groupsig/pkg/gml"
	"github.com/luxfi/groupsig/pkg/gserr"
	"github.com/luxfi/groupsig/pkg/join"
	"github.com/luxfi/groupsig/pkg/scheme"
)

// Code re-exports pkg/scheme.Code so callers need not import pkg/scheme
// just to name a scheme.
type Code = scheme.Code

const (
	BBS04   = scheme.BBS04
	GL19    = scheme.GL19
	PS16    = scheme.PS16
	KLAP20  = scheme.KLAP20
	DL21    = scheme.DL21
	DL21SEQ = scheme.DL21SEQ
)

// Descriptor re-exports pkg/scheme.Descriptor.
type Descriptor = scheme.Descriptor

// SignOptions re-exports pkg/scheme.SignOptions.
type SignOptions = scheme.SignOptions

// OpenStatus re-exports pkg/scheme.OpenStatus.
type OpenStatus = scheme.OpenStatus

const (
	OpenOK   = scheme.OpenOK
	OpenFail = scheme.OpenFail
)

// Descriptors returns the introspection record of every scheme
// registered by an imported scheme package's init().
func Descriptors() []Descriptor { return scheme.Descriptors() }

// DescriptorFor returns the single scheme's descriptor.
func DescriptorFor(code Code) (Descriptor, error) {
	ops, err := scheme.Lookup(code)
	if err != nil {
		return Descriptor{}, err
	}
	return ops.Descriptor(), nil
}

func lookup(op string, code Code) (scheme.Ops, error) {
	ops, err := scheme.Lookup(code)
	if err != nil {
		return nil, gserr.New(gserr.UnsupportedScheme, op, err)
	}
	return ops, nil
}

// Setup runs a scheme's setup call. Pass
// grp=nil, mgr=nil for a scheme's first (Issuer) call; for schemes with
// a second Opener/Converter setup call (KLAP20, GL19), pass the group
// key and manager key returned by the first call.
func Setup(code Code, grp scheme.GroupKey, mgr scheme.ManagerKey) (scheme.GroupKey, scheme.ManagerKey, error) {
	ops, err := lookup("groupsig.Setup", code)
	if err != nil {
		return nil, nil, err
	}
	if grp != nil {
		if err := scheme.CheckSameScheme("groupsig.Setup", code, grp.Scheme()); err != nil {
			return nil, nil, err
		}
	}
	if mgr != nil {
		if err := scheme.CheckSameScheme("groupsig.Setup", code, mgr.Scheme()); err != nil {
			return nil, nil, err
		}
	}
	return ops.Setup(grp, mgr)
}

// NewGML creates an empty Group Membership List for a scheme. Schemes
// that declare HasGML=false (DL21, DL21-SEQ) never need one; passing
// its Append/Entries to Join is simply a caller's no-op in that case.
func NewGML(code Code) *gml.GML { return gml.New(code) }

// Join drives a complete local Join handshake between a
// fresh member and the Issuer, appending a GML entry when g is non-nil
// and the scheme has one. This is the in-process convenience path; for
// a real two-party protocol, drive join.MemberSession/ManagerSession
// directly over a network transport.
func Join(code Code, grp scheme.GroupKey, mgr scheme.ManagerKey, g *gml.GML) (scheme.MemberKey, error) {
	ops, err := lookup("groupsig.Join", code)
	if err != nil {
		return nil, err
	}
	if err := scheme.CheckSameScheme("groupsig.Join", code, grp.Scheme(), mgr.Scheme()); err != nil {
		return nil, err
	}
	var appendGML func(scheme.GMLEntry) (uint64, error)
	if g != nil {
		appendGML = g.Append
	}
	return join.RunLocal(ops, grp, mgr, nil, appendGML)
}

// Sign produces a group signature. opts.Scope is required for
// DL21/DL21-SEQ.
func Sign(code Code, mem scheme.MemberKey, grp scheme.GroupKey, msg []byte, opts SignOptions) (scheme.Signature, error) {
	ops, err := lookup("groupsig.Sign", code)
	if err != nil {
		return nil, err
	}
	if err := scheme.CheckSameScheme("groupsig.Sign", code, mem.Scheme(), grp.Scheme()); err != nil {
		return nil, err
	}
	return ops.Sign(mem, grp, msg, opts)
}

// Verify checks a group signature. A cryptographic rejection returns
// ok=false with a nil error; only malformed input returns a non-nil
// error.
func Verify(code Code, sig scheme.Signature, msg []byte, grp scheme.GroupKey) (bool, error) {
	ops, err := lookup("groupsig.Verify", code)
	if err != nil {
		return false, err
	}
	if err := scheme.CheckSameScheme("groupsig.Verify", code, sig.Scheme(), grp.Scheme()); err != nil {
		return false, err
	}
	return ops.Verify(sig, msg, grp)
}

// VerifyBatch is AND_i Verify(sig_i, msg_i), batched where the scheme
// declares a genuine optimisation (KLAP20).
func VerifyBatch(code Code, sigs []scheme.Signature, msgs [][]byte, grp scheme.GroupKey) (bool, error) {
	ops, err := lookup("groupsig.VerifyBatch", code)
	if err != nil {
		return false, err
	}
	codes := make([]scheme.Code, 0, len(sigs)+1)
	codes = append(codes, code, grp.Scheme())
	for _, s := range sigs {
		codes = append(codes, s.Scheme())
	}
	if err := scheme.CheckSameScheme("groupsig.VerifyBatch", codes...); err != nil {
		return false, err
	}
	return ops.VerifyBatch(sigs, msgs, grp)
}

// Open (KLAP20 only) decrypts the escrow, scans the GML, and produces
// a verifiable-opening proof. Fails with
// UnsupportedScheme if the scheme does not declare HasVerifiableOpenings.
func Open(code Code, sig scheme.Signature, grp scheme.GroupKey, mgr scheme.ManagerKey, g *gml.GML) (uint64, scheme.Proof, OpenStatus, error) {
	ops, err := lookup("groupsig.Open", code)
	if err != nil {
		return 0, nil, OpenFail, err
	}
	opener, ok := ops.(scheme.Opener)
	if !ok {
		return 0, nil, OpenFail, gserr.New(gserr.UnsupportedScheme, "groupsig.Open",
			fmt.Errorf("scheme %s has no Opener capability", code))
	}
	if err := scheme.CheckSameScheme("groupsig.Open", code, sig.Scheme(), grp.Scheme(), mgr.Scheme()); err != nil {
		return 0, nil, OpenFail, err
	}
	var entries []scheme.GMLEntry
	if g != nil {
		entries = g.Entries()
	}
	return opener.Open(sig, grp, mgr, entries)
}

// OpenVerify re-verifies the verifiable-opening proof produced by Open.
func OpenVerify(code Code, proof scheme.Proof, sig scheme.Signature, grp scheme.GroupKey) (bool, error) {
	ops, err := lookup("groupsig.OpenVerify", code)
	if err != nil {
		return false, err
	}
	opener, ok := ops.(scheme.Opener)
	if !ok {
		return false, gserr.New(gserr.UnsupportedScheme, "groupsig.OpenVerify",
			fmt.Errorf("scheme %s has no Opener capability", code))
	}
	if err := scheme.CheckSameScheme("groupsig.OpenVerify", code, proof.Scheme(), sig.Scheme(), grp.Scheme()); err != nil {
		return false, err
	}
	return opener.OpenVerify(proof, sig, grp)
}

// NewBlindKey generates a fresh blinding keypair (GL19 only).
func NewBlindKey(code Code) (scheme.BlindKey, error) {
	ops, err := lookup("groupsig.NewBlindKey", code)
	if err != nil {
		return nil, err
	}
	bk, ok := ops.(scheme.BlindKeyer)
	if !ok {
		return nil, gserr.New(gserr.UnsupportedScheme, "groupsig.NewBlindKey",
			fmt.Errorf("scheme %s has no BlindKeyer capability", code))
	}
	return bk.NewBlindKey()
}

// Blind encrypts a signature's pseudonym under a blinding keypair
// (GL19 only).
func Blind(code Code, sig scheme.Signature, grp scheme.GroupKey, bk scheme.BlindKey) (scheme.Signature, error) {
	ops, err := lookup("groupsig.Blind", code)
	if err != nil {
		return nil, err
	}
	conv, ok := ops.(scheme.Converter)
	if !ok {
		return nil, gserr.New(gserr.UnsupportedScheme, "groupsig.Blind",
			fmt.Errorf("scheme %s has no Converter capability", code))
	}
	if err := scheme.CheckSameScheme("groupsig.Blind", code, sig.Scheme(), grp.Scheme(), bk.Scheme()); err != nil {
		return nil, err
	}
	return conv.Blind(sig, grp, bk)
}

// Convert rerandomises a batch of blinded signatures (GL19 only). The
// API is batch-shaped on purpose: a single-element slice is valid but
// leaks timing information to the Converter.
func Convert(code Code, bsigs []scheme.Signature, grp scheme.GroupKey, mgr scheme.ManagerKey) ([]scheme.Signature, error) {
	ops, err := lookup("groupsig.Convert", code)
	if err != nil {
		return nil, err
	}
	conv, ok := ops.(scheme.Converter)
	if !ok {
		return nil, gserr.New(gserr.UnsupportedScheme, "groupsig.Convert",
			fmt.Errorf("scheme %s has no Converter capability", code))
	}
	codes := make([]scheme.Code, 0, len(bsigs)+2)
	codes = append(codes, code, grp.Scheme(), mgr.Scheme())
	for _, s := range bsigs {
		codes = append(codes, s.Scheme())
	}
	if err := scheme.CheckSameScheme("groupsig.Convert", codes...); err != nil {
		return nil, err
	}
	return conv.Convert(bsigs, grp, mgr)
}

// Unblind recovers a converted signature's domain pseudonym (GL19
// only).
func Unblind(code Code, bsig scheme.Signature, bk scheme.BlindKey, msg []byte) ([]byte, error) {
	ops, err := lookup("groupsig.Unblind", code)
	if err != nil {
		return nil, err
	}
	conv, ok := ops.(scheme.Converter)
	if !ok {
		return nil, gserr.New(gserr.UnsupportedScheme, "groupsig.Unblind",
			fmt.Errorf("scheme %s has no Converter capability", code))
	}
	if err := scheme.CheckSameScheme("groupsig.Unblind", code, bsig.Scheme(), bk.Scheme()); err != nil {
		return nil, err
	}
	return conv.Unblind(bsig, bk, msg)
}

// Identify reports whether sig was produced by mem (DL21/DL21-SEQ
// only).
func Identify(code Code, grp scheme.GroupKey, mem scheme.MemberKey, sig scheme.Signature, msg []byte) (bool, error) {
	ops, err := lookup("groupsig.Identify", code)
	if err != nil {
		return false, err
	}
	linker, ok := ops.(scheme.Linker)
	if !ok {
		return false, gserr.New(gserr.UnsupportedScheme, "groupsig.Identify",
			fmt.Errorf("scheme %s has no Linker capability", code))
	}
	if err := scheme.CheckSameScheme("groupsig.Identify", code, grp.Scheme(), mem.Scheme(), sig.Scheme()); err != nil {
		return false, err
	}
	return linker.Identify(grp, mem, sig, msg)
}

// Link proves that every signature in sigs was produced by mem
// (DL21/DL21-SEQ only).
func Link(code Code, grp scheme.GroupKey, mem scheme.MemberKey, msg []byte, sigs []scheme.Signature, msgs [][]byte) (scheme.Proof, error) {
	ops, err := lookup("groupsig.Link", code)
	if err != nil {
		return nil, err
	}
	linker, ok := ops.(scheme.Linker)
	if !ok {
		return nil, gserr.New(gserr.UnsupportedScheme, "groupsig.Link",
			fmt.Errorf("scheme %s has no Linker capability", code))
	}
	codes := make([]scheme.Code, 0, len(sigs)+2)
	codes = append(codes, code, grp.Scheme(), mem.Scheme())
	for _, s := range sigs {
		codes = append(codes, s.Scheme())
	}
	if err := scheme.CheckSameScheme("groupsig.Link", codes...); err != nil {
		return nil, err
	}
	return linker.Link(grp, mem, msg, sigs, msgs)
}

// VerifyLink checks a proof produced by Link (DL21/DL21-SEQ only).
func VerifyLink(code Code, proof scheme.Proof, grp scheme.GroupKey, msg []byte, sigs []scheme.Signature, msgs [][]byte) (bool, error) {
	ops, err := lookup("groupsig.VerifyLink", code)
	if err != nil {
		return false, err
	}
	linker, ok := ops.(scheme.Linker)
	if !ok {
		return false, gserr.New(gserr.UnsupportedScheme, "groupsig.VerifyLink",
			fmt.Errorf("scheme %s has no Linker capability", code))
	}
	codes := make([]scheme.Code, 0, len(sigs)+2)
	codes = append(codes, code, proof.Scheme(), grp.Scheme())
	for _, s := range sigs {
		codes = append(codes, s.Scheme())
	}
	if err := scheme.CheckSameScheme("groupsig.VerifyLink", codes...); err != nil {
		return false, err
	}
	return linker.VerifyLink(proof, grp, msg, sigs, msgs)
}

// SeqLink proves an ordered batch of the caller's own signatures forms
// an unbroken sequential chain (DL21-SEQ only). The chain values are
// derived under the member's secret PRF keys, so only the member can
// produce the proof; it reveals the per-signature chain openings a
// verifier needs.
func SeqLink(code Code, grp scheme.GroupKey, mem scheme.MemberKey, msg []byte, sigs []scheme.Signature, msgs [][]byte) (scheme.Proof, error) {
	ops, err := lookup("groupsig.SeqLink", code)
	if err != nil {
		return nil, err
	}
	seqLinker, ok := ops.(scheme.SequentialLinker)
	if !ok {
		return nil, gserr.New(gserr.UnsupportedScheme, "groupsig.SeqLink",
			fmt.Errorf("scheme %s has no SequentialLinker capability", code))
	}
	codes := make([]scheme.Code, 0, len(sigs)+2)
	codes = append(codes, code, grp.Scheme(), mem.Scheme())
	for _, s := range sigs {
		codes = append(codes, s.Scheme())
	}
	if err := scheme.CheckSameScheme("groupsig.SeqLink", codes...); err != nil {
		return nil, err
	}
	return seqLinker.SeqLink(grp, mem, msg, sigs, msgs)
}

// VerifySeqLink checks a sequential-link proof against an ordered
// batch (DL21-SEQ only). brokenAt is the index of the first signature
// that fails its own verification or its chain check; it is -1 when the
// whole chain verifies, when the arguments are malformed, and when the
// link SPK is rejected.
func VerifySeqLink(code Code, proof scheme.Proof, grp scheme.GroupKey, msg []byte, sigs []scheme.Signature, msgs [][]byte) (ok bool, brokenAt int, err error) {
	ops, err := lookup("groupsig.VerifySeqLink", code)
	if err != nil {
		return false, -1, err
	}
	seqLinker, isOk := ops.(scheme.SequentialLinker)
	if !isOk {
		return false, -1, gserr.New(gserr.UnsupportedScheme, "groupsig.VerifySeqLink",
			fmt.Errorf("scheme %s has no SequentialLinker capability", code))
	}
	codes := make([]scheme.Code, 0, len(sigs)+3)
	codes = append(codes, code, proof.Scheme(), grp.Scheme())
	for _, s := range sigs {
		codes = append(codes, s.Scheme())
	}
	if err := scheme.CheckSameScheme("groupsig.VerifySeqLink", codes...); err != nil {
		return false, -1, err
	}
	return seqLinker.VerifySeqLink(proof, grp, msg, sigs, msgs)
}

// Export serialises any tagged object kind to its canonical binary
// form.
func Export(obj interface{ MarshalBinary() ([]byte, error) }) ([]byte, error) {
	return obj.MarshalBinary()
}

// ImportGroupKey, ImportManagerKey, ImportMemberKey, ImportSignature,
// and ImportProof parse an object kind's canonical bytes, dispatching
// on the leading scheme-code byte.
func ImportGroupKey(b []byte) (scheme.GroupKey, error) {
	code, err := peekCode("groupsig.ImportGroupKey", b)
	if err != nil {
		return nil, err
	}
	ops, err := lookup("groupsig.ImportGroupKey", code)
	if err != nil {
		return nil, err
	}
	return ops.ImportGroupKey(b)
}

func ImportManagerKey(b []byte) (scheme.ManagerKey, error) {
	code, err := peekCode("groupsig.ImportManagerKey", b)
	if err != nil {
		return nil, err
	}
	ops, err := lookup("groupsig.ImportManagerKey", code)
	if err != nil {
		return nil, err
	}
	return ops.ImportManagerKey(b)
}

func ImportMemberKey(b []byte) (scheme.MemberKey, error) {
	code, err := peekCode("groupsig.ImportMemberKey", b)
	if err != nil {
		return nil, err
	}
	ops, err := lookup("groupsig.ImportMemberKey", code)
	if err != nil {
		return nil, err
	}
	return ops.ImportMemberKey(b)
}

func ImportSignature(b []byte) (scheme.Signature, error) {
	code, err := peekCode("groupsig.ImportSignature", b)
	if err != nil {
		return nil, err
	}
	ops, err := lookup("groupsig.ImportSignature", code)
	if err != nil {
		return nil, err
	}
	return ops.ImportSignature(b)
}

func ImportProof(b []byte) (scheme.Proof, error) {
	code, err := peekCode("groupsig.ImportProof", b)
	if err != nil {
		return nil, err
	}
	ops, err := lookup("groupsig.ImportProof", code)
	if err != nil {
		return nil, err
	}
	return ops.ImportProof(b)
}

// ImportBlindKey parses a blinding keypair's canonical bytes (GL19
// only). Unlike the other Import* functions it takes the scheme
// code explicitly: a BlindKey carries no scheme-code prefix of its own
// since it is never passed across a scheme boundary.
func ImportBlindKey(code Code, b []byte) (scheme.BlindKey, error) {
	ops, err := lookup("groupsig.ImportBlindKey", code)
	if err != nil {
		return nil, err
	}
	bk, ok := ops.(scheme.BlindKeyer)
	if !ok {
		return nil, gserr.New(gserr.UnsupportedScheme, "groupsig.ImportBlindKey",
			fmt.Errorf("scheme %s has no BlindKeyer capability", code))
	}
	return bk.ImportBlindKey(b)
}

// ImportGML parses a GML's canonical bytes.
func ImportGML(b []byte) (*gml.GML, error) { return gml.Import(b) }

func peekCode(op string, b []byte) (scheme.Code, error) {
	if len(b) < 1 {
		return 0, gserr.New(gserr.Serialisation, op, fmt.Errorf("empty buffer"))
	}
	return scheme.Code(b[0]), nil
}
