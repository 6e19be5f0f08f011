package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("signin: %w", Credentials("Invalid email or password"))

	assert.Equal(t, KindCredentials, KindOf(wrapped))
	assert.Equal(t, KindConflict, KindOf(Conflict("taken")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestMessageOf_HidesCause(t *testing.T) {
	cause := errors.New("connection refused on 10.0.0.3")
	err := Internal("", cause)

	assert.Equal(t, "Server error", MessageOf(err, "Server error"))
	assert.Equal(t, "Token is not valid", MessageOf(Unauthorized("Token is not valid", cause), "x"))
	assert.ErrorIs(t, err, cause)
}
