package scheme

import (
	"fmt"

	"github.com/luxfi/groupsig/pkg/gserr"
)

// OpenStatus distinguishes a successful Open from one where the
// signature is valid but no GML entry matches.
type OpenStatus int

const (
	OpenOK OpenStatus = iota
	OpenFail
)

// SignOptions carries a Seed field plus scheme-specific extras (DL21's
// scope). No scheme in this module reads Seed: every Sign draws its
// randomness from crypto/rand.
type SignOptions struct {
	Seed  []byte // accepted but not read by any scheme
	Scope []byte // required for DL21/DL21-SEQ
}

// Ops is the per-scheme algorithm table every scheme package registers
// one implementation of. All façade operations dispatch through it.
type Ops interface {
	Descriptor() Descriptor

	// Setup runs the scheme's setup call. mgr is nil on the first
	// (Issuer) call; non-nil and partially filled on a scheme's second
	// call (e.g. KLAP20/GL19's Opener/Converter setup).
	Setup(grp GroupKey, mgr ManagerKey) (GroupKey, ManagerKey, error)

	// JoinMember advances the member side of the interactive Join
	// protocol by one message.
	JoinMember(mem MemberKey, seq int, in []byte, grp GroupKey) (out []byte, next MemberKey, finished bool, err error)

	// JoinManager advances the manager side, appending a GML entry on
	// the terminal manager step when the scheme HasGML.
	JoinManager(mgr ManagerKey, seq int, in []byte, grp GroupKey, appendGML func(entry GMLEntry) (uint64, error)) (out []byte, finished bool, err error)

	Sign(mem MemberKey, grp GroupKey, msg []byte, opts SignOptions) (Signature, error)
	Verify(sig Signature, msg []byte, grp GroupKey) (bool, error)
	VerifyBatch(sigs []Signature, msgs [][]byte, grp GroupKey) (bool, error)

	ImportGroupKey(b []byte) (GroupKey, error)
	ImportManagerKey(b []byte) (ManagerKey, error)
	ImportMemberKey(b []byte) (MemberKey, error)
	ImportSignature(b []byte) (Signature, error)
	ImportProof(b []byte) (Proof, error)
}

// Opener is an optional capability: schemes that declare
// HasVerifiableOpenings implement it.
type Opener interface {
	Open(sig Signature, grp GroupKey, mgr ManagerKey, entries []GMLEntry) (index uint64, proof Proof, status OpenStatus, err error)
	OpenVerify(proof Proof, sig Signature, grp GroupKey) (bool, error)
}

// BlindKeyer is an optional capability for schemes that have a blinding
// keypair (GL19).
type BlindKeyer interface {
	NewBlindKey() (BlindKey, error)
	ImportBlindKey(b []byte) (BlindKey, error)
}

// Converter is an optional capability: GL19's Blind/Convert/Unblind.
type Converter interface {
	Blind(sig Signature, grp GroupKey, bk BlindKey) (Signature, error)
	Convert(bsigs []Signature, grp GroupKey, mgr ManagerKey) ([]Signature, error)
	Unblind(bsig Signature, bk BlindKey, msg []byte) ([]byte, error)
}

// Linker is an optional capability: DL21's Identify/Link/VerifyLink.
type Linker interface {
	Identify(grp GroupKey, mem MemberKey, sig Signature, msg []byte) (bool, error)
	Link(grp GroupKey, mem MemberKey, msg []byte, sigs []Signature, msgs [][]byte) (Proof, error)
	VerifyLink(proof Proof, grp GroupKey, msg []byte, sigs []Signature, msgs [][]byte) (bool, error)
}

// SequentialLinker extends Linker with DL21-SEQ's chained proof. The
// chain values inside a signature are derived under the member's
// secret PRF keys, so proving an ordering is a member-side operation
// (SeqLink) whose proof reveals the per-signature chain openings;
// VerifySeqLink then needs no secrets.
type SequentialLinker interface {
	Linker
	SeqLink(grp GroupKey, mem MemberKey, msg []byte, sigs []Signature, msgs [][]byte) (Proof, error)
	VerifySeqLink(proof Proof, grp GroupKey, msg []byte, sigs []Signature, msgs [][]byte) (ok bool, brokenAt int, err error)
}

type registryEntry struct {
	code Code
	ops  Ops
}

// table is the handle table. With at most a handful of registered
// schemes a linear scan beats a map; registration order is also what
// Descriptors reports.
var table []registryEntry

// Register adds a scheme's Ops to the dispatch table. Scheme packages call
// this from an init(); see schemes/bbs04/bbs04.go for the idiom.
func Register(code Code, ops Ops) {
	for _, e := range table {
		if e.code == code {
			panic(fmt.Sprintf("scheme: code %d registered twice", code))
		}
	}
	table = append(table, registryEntry{code: code, ops: ops})
}

// Lookup resolves a scheme code to its registered Ops.
func Lookup(code Code) (Ops, error) {
	for _, e := range table {
		if e.code == code {
			return e.ops, nil
		}
	}
	return nil, gserr.New(gserr.UnsupportedScheme, "scheme.Lookup", fmt.Errorf("no handle for code %d", code))
}

// Descriptors returns the descriptor of every registered scheme, in
// registration order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(table))
	for _, e := range table {
		out = append(out, e.ops.Descriptor())
	}
	return out
}

// CheckSameScheme rejects any mix of scheme codes across the tagged
// objects of one call.
func CheckSameScheme(op string, codes ...Code) error {
	if len(codes) == 0 {
		return nil
	}
	want := codes[0]
	for _, c := range codes[1:] {
		if c != want {
			return gserr.New(gserr.InvalidArgument, op, fmt.Errorf("mixed scheme codes: %d vs %d", want, c))
		}
	}
	return nil
}
