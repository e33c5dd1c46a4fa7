package gserr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luxfi/groupsig/pkg/gserr"
)

func TestErrorWrappingAndKind(t *testing.T) {
	cause := errors.New("boom")
	err := gserr.New(gserr.CryptoFail, "verify", cause)

	assert.True(t, gserr.Is(err, gserr.CryptoFail))
	assert.False(t, gserr.Is(err, gserr.NotFound))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "verify")
	assert.Contains(t, err.Error(), "crypto_fail")
}

func TestErrorWithoutCause(t *testing.T) {
	err := gserr.New(gserr.NotFound, "open", nil)
	assert.Equal(t, "groupsig: open: not_found", err.Error())
}
