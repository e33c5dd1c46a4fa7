package scheme

// The tagged object kinds. Each is a narrow interface; concrete
// per-scheme structs (schemes/bbs04.GroupKey, schemes/klap20.MemberKey,
// ...) implement it and are matched by delegating to the scheme's
// registered Ops.

// GroupKey is the public parameters shared by every signer and verifier.
type GroupKey interface {
	Scheme() Code
	MarshalBinary() ([]byte, error)
}

// ManagerKey is an Issuer's (and, where applicable, Opener/Converter's)
// private key material.
type ManagerKey interface {
	Scheme() Code
	MarshalBinary() ([]byte, error)
}

// MemberKey is a group member's private signing key.
type MemberKey interface {
	Scheme() Code
	MarshalBinary() ([]byte, error)
}

// BlindKey is the Converter-facing blinding keypair of GL19.
type BlindKey interface {
	Scheme() Code
	MarshalBinary() ([]byte, error)
}

// Signature is a produced group signature.
type Signature interface {
	Scheme() Code
	MarshalBinary() ([]byte, error)
}

// Proof is any of the scheme-specific zero-knowledge proofs that aren't
// themselves part of a Signature (verifiable opening, link, seq-link).
type Proof interface {
	Scheme() Code
	MarshalBinary() ([]byte, error)
}

// GML is the Group Membership List object kind itself (as opposed to one
// of its entries).
type GML interface {
	Scheme() Code
	MarshalBinary() ([]byte, error)
}

// GMLEntry is one append-only record of a Group Membership List.
type GMLEntry struct {
	SchemeCode Code
	Index      uint64
	// Trapdoor is the traceable commitment contributed during Join (e.g.
	// tau = g1^y for KLAP20, F = h^y for BBS04/GL19), canonically
	// serialised.
	Trapdoor []byte
	// Extra is scheme-specific metadata (e.g. expiration for GL19),
	// opaque to pkg/gml.
	Extra []byte
}
