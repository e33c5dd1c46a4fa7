// Package credential implements the shared BBS+-style credential
// machinery every scheme in this module builds on: group/manager key
// generation, issuance, and the randomisation step that produces the
// (Â, Ã, d) triple and the SPK-REP witnesses bound to it. Each scheme
// package extends the two base equations Equations returns with its
// own (opener escrow, pseudonym, ...) before calling pkg/spk.
//
// This is not a literal transcription of any published BBS+ variant:
// issuance inverts isk+x, and signing rerandomises Â/Ã/d bound by a
// two-equation SPK-REP over shared witnesses x, b, y'.
package credential

import (
	"io"

	"github.com/luxfi/groupsig/pkg/curve"
	"github.com/luxfi/groupsig/pkg/gserr"
	"github.com/luxfi/groupsig/pkg/spk"
)

// GroupKey holds the public generators shared by every scheme built on
// this credential: g1, h (blinding base for the member secret y), h1
// (auxiliary Pedersen base), g2 and ipk = g2^isk.
type GroupKey struct {
	G1, H, H1 curve.G1
	G2        curve.G2
	IPK       curve.G2
}

// ManagerKey is the Issuer's secret isk.
type ManagerKey struct {
	ISK curve.Scalar
}

// Credential is the BBS+ pair (A, x) issued to a member; y stays with
// the member and is never sent to the Issuer in the clear (only F = h^y
// is, during Join).
type Credential struct {
	A curve.G1
	X curve.Scalar
}

// Randomized is the per-signature rerandomisation of a Credential: the
// three public points a verifier sees, plus the auxiliary Pedersen
// commitment C that binds the blinding witnesses b, y'.
type Randomized struct {
	AHat, ATilde, D, C curve.G1
}

// GenerateGroupKey samples fresh generators and an Issuer keypair.
// g1, h, h1 are derived via hash-to-curve from distinct labels, each
// followed by a random salt read from rnd, so every group gets its own
// generators and no discrete-log relation between them is known.
func GenerateGroupKey(rnd io.Reader) (GroupKey, ManagerKey, error) {
	var salt [32]byte
	if _, err := io.ReadFull(rnd, salt[:]); err != nil {
		return GroupKey{}, ManagerKey{}, gserr.New(gserr.Internal, "credential.GenerateGroupKey", err)
	}
	g1, err := curve.HashToG1(append([]byte("groupsig/credential/g1"), salt[:]...), []byte("groupsig-dst"))
	if err != nil {
		return GroupKey{}, ManagerKey{}, gserr.New(gserr.Internal, "credential.GenerateGroupKey", err)
	}
	h, err := curve.HashToG1(append([]byte("groupsig/credential/h"), salt[:]...), []byte("groupsig-dst"))
	if err != nil {
		return GroupKey{}, ManagerKey{}, gserr.New(gserr.Internal, "credential.GenerateGroupKey", err)
	}
	h1, err := curve.HashToG1(append([]byte("groupsig/credential/h1"), salt[:]...), []byte("groupsig-dst"))
	if err != nil {
		return GroupKey{}, ManagerKey{}, gserr.New(gserr.Internal, "credential.GenerateGroupKey", err)
	}
	isk, err := curve.RandomScalar(rnd)
	if err != nil {
		return GroupKey{}, ManagerKey{}, gserr.New(gserr.Internal, "credential.GenerateGroupKey", err)
	}
	g2 := curve.G2Generator()
	ipk := g2.ScalarMult(isk)

	grp := GroupKey{G1: g1, H: h, H1: h1, G2: g2, IPK: ipk}
	mgr := ManagerKey{ISK: isk}
	return grp, mgr, nil
}

// CommitY computes F = h^y, the member's Join-time commitment.
func CommitY(grp GroupKey, y curve.Scalar) curve.G1 {
	return grp.H.ScalarMult(y)
}

// Issue produces a fresh credential over the member's commitment F:
// samples x, computes A = (g1 · F)^(1/(isk+x)).
func Issue(mgr ManagerKey, grp GroupKey, f curve.G1, rnd io.Reader) (Credential, error) {
	x, err := curve.RandomScalar(rnd)
	if err != nil {
		return Credential{}, gserr.New(gserr.Internal, "credential.Issue", err)
	}
	denom := mgr.ISK.Add(x)
	if denom.IsZero() {
		return Credential{}, gserr.New(gserr.CryptoFail, "credential.Issue", errIskPlusXZero)
	}
	inv := denom.Inverse()
	base := grp.G1.Add(f)
	a := base.ScalarMult(inv)
	return Credential{A: a, X: x}, nil
}

// VerifyCredential checks the membership equation
// e(A, ipk·g2^x) == e(g1·h^y, g2).
func VerifyCredential(grp GroupKey, cred Credential, y curve.Scalar) (bool, error) {
	rhsG2 := grp.IPK.Add(grp.G2.ScalarMult(cred.X))
	lhs, err := curve.Pair([]curve.G1{cred.A}, []curve.G2{rhsG2})
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "credential.VerifyCredential", err)
	}
	f := CommitY(grp, y)
	rhs, err := curve.Pair([]curve.G1{grp.G1.Add(f)}, []curve.G2{grp.G2})
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "credential.VerifyCredential", err)
	}
	return lhs.Equal(rhs), nil
}

// Randomize samples a, b, rerandomises the credential, and returns the
// witnesses (x, b, yPrime) the caller passes to spk.ProveRep alongside
// Equations' output.
func Randomize(grp GroupKey, cred Credential, y curve.Scalar, rnd io.Reader) (r Randomized, x, b, yPrime curve.Scalar, err error) {
	a, err := curve.RandomScalar(rnd)
	if err != nil {
		return Randomized{}, curve.Scalar{}, curve.Scalar{}, curve.Scalar{}, gserr.New(gserr.Internal, "credential.Randomize", err)
	}
	b, err = curve.RandomScalar(rnd)
	if err != nil {
		return Randomized{}, curve.Scalar{}, curve.Scalar{}, curve.Scalar{}, gserr.New(gserr.Internal, "credential.Randomize", err)
	}

	aHat := cred.A.ScalarMult(a)
	f := CommitY(grp, y)
	baseAYa := grp.G1.Add(f).ScalarMult(a)

	aTilde := baseAYa.Add(aHat.ScalarMult(cred.X.Neg()))
	d := baseAYa.Add(grp.H.ScalarMult(b))
	yPrime = y.Mul(a)
	c := grp.H1.ScalarMult(b).Add(grp.H.ScalarMult(yPrime))

	return Randomized{AHat: aHat, ATilde: aTilde, D: d, C: c}, cred.X, b, yPrime, nil
}

// Equations returns the two base SPK-REP equations over witness order
// [0]=x, [1]=b, [2]=y'. Schemes that need more witnesses (opener
// escrow, pseudonyms, ...) append further equations reusing indices
// 0..2 and introducing new ones starting at 3.
func Equations(r Randomized, h, h1 curve.G1) []spk.Equation {
	y1 := r.ATilde.Sub(r.D)
	eq1 := spk.Equation{
		Y:          y1,
		Bases:      []curve.G1{r.AHat.Neg(), h.Neg()},
		WitnessIdx: []int{0, 1},
	}
	eq2 := spk.Equation{
		Y:          r.C,
		Bases:      []curve.G1{h1, h},
		WitnessIdx: []int{1, 2},
	}
	return []spk.Equation{eq1, eq2}
}

// VerifyPairing checks the scheme-agnostic pairing relation
// e(Â,ipk) == e(Ã,g2): it holds iff Ã was constructed from a credential
// validly issued under grp's isk, independent of which x, y, a, b the
// signer used.
func VerifyPairing(grp GroupKey, r Randomized) (bool, error) {
	lhs, err := curve.Pair([]curve.G1{r.AHat}, []curve.G2{grp.IPK})
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "credential.VerifyPairing", err)
	}
	rhs, err := curve.Pair([]curve.G1{r.ATilde}, []curve.G2{grp.G2})
	if err != nil {
		return false, gserr.New(gserr.CryptoFail, "credential.VerifyPairing", err)
	}
	return lhs.Equal(rhs), nil
}

var errIskPlusXZero = errZero{}

type errZero struct{}

func (errZero) Error() string { return "isk + x reduced to zero, resample" }
