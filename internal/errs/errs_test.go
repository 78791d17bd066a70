package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindBadRequest, KindOf(BadRequest("bad")))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorized("who")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("no")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("gone")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Internal(cause)

	assert.Equal(t, "internal error", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestMessageFormatting(t *testing.T) {
	err := BadRequest("duplicate member: %s", "bob")
	assert.Equal(t, "duplicate member: bob", err.Error())
}
