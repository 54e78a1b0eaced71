package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, "SOME_CODE", http.StatusBadGateway, "upstream failed")

	assert.Equal(t, "upstream failed: boom", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestFromError(t *testing.T) {
	typed := Wrap(errors.New("boom"), ErrValidation.Code, ErrValidation.Status, "bad input")
	wrapped := fmt.Errorf("handler: %w", typed)

	got := FromError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrValidation.Code, got.Code)
	assert.Equal(t, http.StatusBadRequest, got.Status)

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)

	assert.Nil(t, FromError(nil))
}
