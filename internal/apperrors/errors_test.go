package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindConflict, KindOf(Conflict("illegal transition")))
	assert.Equal(t, KindInsufficient, KindOf(Insufficient("short %d points", 5)))
	assert.Equal(t, KindExternal, KindOf(External(errors.New("timeout"), "gateway down")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("redeeming reward: %w", Insufficient("insufficient points"))
	assert.True(t, Is(err, KindInsufficient))
	assert.False(t, Is(err, KindConflict))
}

func TestExternalWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := External(cause, "moniepoint request failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "moniepoint request failed")
	assert.Contains(t, err.Error(), "connection refused")
}
