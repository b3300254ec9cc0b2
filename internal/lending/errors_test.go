package lending

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := OutOfStock(7)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("handler: %w", err)
	assert.ErrorIs(t, wrapped, ErrOutOfStock)
	assert.Equal(t, KindOutOfStock, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	err := withOp("approve request", NotFound("book", 3))
	assert.Equal(t, "approve request: book 3 not found", err.Error())

	cause := errors.New("database is locked")
	err = withOp("return loan", cause)
	assert.Equal(t, KindTransientStore, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "return loan: store unavailable: database is locked", err.Error())
}

func TestWithOp_KeepsFirstOp(t *testing.T) {
	inner := withOp("inner", Validation("bad input"))
	outer := withOp("outer", inner)

	var le *Error
	assert.True(t, errors.As(outer, &le))
	assert.Equal(t, "inner", le.Op)
	assert.Nil(t, withOp("noop", nil))
}

func TestWithOp_DoesNotMutateShared(t *testing.T) {
	base := DuplicateCard(4)
	_ = withOp("request card", base)
	assert.Empty(t, base.Op)
}
