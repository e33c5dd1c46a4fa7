package scheme_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/groupsig/pkg/scheme"
)

type stubOps struct{ d scheme.Descriptor }

func (s stubOps) Descriptor() scheme.Descriptor { return s.d }
func (stubOps) Setup(scheme.GroupKey, scheme.ManagerKey) (scheme.GroupKey, scheme.ManagerKey, error) {
	return nil, nil, nil
}
func (stubOps) JoinMember(scheme.MemberKey, int, []byte, scheme.GroupKey) ([]byte, scheme.MemberKey, bool, error) {
	return nil, nil, false, nil
}
func (stubOps) JoinManager(scheme.ManagerKey, int, []byte, scheme.GroupKey, func(scheme.GMLEntry) (uint64, error)) ([]byte, bool, error) {
	return nil, false, nil
}
func (stubOps) Sign(scheme.MemberKey, scheme.GroupKey, []byte, scheme.SignOptions) (scheme.Signature, error) {
	return nil, nil
}
func (stubOps) Verify(scheme.Signature, []byte, scheme.GroupKey) (bool, error) { return false, nil }
func (stubOps) VerifyBatch([]scheme.Signature, [][]byte, scheme.GroupKey) (bool, error) {
	return false, nil
}
func (stubOps) ImportGroupKey([]byte) (scheme.GroupKey, error)     { return nil, nil }
func (stubOps) ImportManagerKey([]byte) (scheme.ManagerKey, error) { return nil, nil }
func (stubOps) ImportMemberKey([]byte) (scheme.MemberKey, error)   { return nil, nil }
func (stubOps) ImportSignature([]byte) (scheme.Signature, error)   { return nil, nil }
func (stubOps) ImportProof([]byte) (scheme.Proof, error)           { return nil, nil }

func TestRegisterAndLookup(t *testing.T) {
	const testCode scheme.Code = 200
	ops := stubOps{d: scheme.Descriptor{Code: testCode, Name: "TEST"}}
	scheme.Register(testCode, ops)

	got, err := scheme.Lookup(testCode)
	require.NoError(t, err)
	assert.Equal(t, "TEST", got.Descriptor().Name)
}

func TestLookupUnknownScheme(t *testing.T) {
	_, err := scheme.Lookup(scheme.Code(250))
	assert.Error(t, err)
}

func TestCheckSameScheme(t *testing.T) {
	assert.NoError(t, scheme.CheckSameScheme("sign", scheme.BBS04, scheme.BBS04))
	assert.Error(t, scheme.CheckSameScheme("sign", scheme.BBS04, scheme.KLAP20))
}
