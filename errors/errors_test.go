package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	original := New("original")
	wrapped := Wrapf(original, "fetch %s", "http://xmlns.com/foaf/0.1/")

	assert.Contains(t, wrapped.Error(), "fetch http://xmlns.com/foaf/0.1/")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.status)
}

func TestAs(t *testing.T) {
	wrapped := Wrap(&statusError{status: 404}, "fetch vocabulary")

	var target *statusError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, 404, target.status)
}

func TestHintsAndDetails(t *testing.T) {
	err := WithHint(New("no grammar"), "use a .ttl, .jsonld or .rq extension")
	err = WithDetail(err, "uri: file:///tmp/x.txt")

	assert.Equal(t, []string{"use a .ttl, .jsonld or .rq extension"}, GetAllHints(err))
	assert.Equal(t, []string{"uri: file:///tmp/x.txt"}, GetAllDetails(err))
}

func TestStackTrace(t *testing.T) {
	detailed := fmt.Sprintf("%+v", New("with stack"))
	assert.Contains(t, detailed, "errors_test.go")
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
}

func TestSentinels(t *testing.T) {
	t.Run("unknown document", func(t *testing.T) {
		err := UnknownDocument("file:///a.ttl")
		assert.True(t, Is(err, ErrUnknownDocument))
		assert.True(t, IsNotFoundError(err))
		assert.Contains(t, err.Error(), "file:///a.ttl")
		assert.NotEmpty(t, GetAllHints(err))
	})

	t.Run("not found", func(t *testing.T) {
		err := NewNotFoundError("vocabulary %s", "foaf")
		assert.True(t, IsNotFoundError(err))
		assert.False(t, IsInvalidRequestError(err))
		assert.Contains(t, err.Error(), "vocabulary foaf")
	})

	t.Run("invalid request", func(t *testing.T) {
		err := NewInvalidRequestError("rename to %q", "")
		assert.True(t, IsInvalidRequestError(err))
	})

	t.Run("nil", func(t *testing.T) {
		assert.False(t, IsNotFoundError(nil))
		assert.False(t, IsInvalidRequestError(nil))
	})

	t.Run("wrapped fetch failure", func(t *testing.T) {
		err := Wrap(Wrap(ErrFetchFailed, "status 500"), "load foaf")
		assert.True(t, Is(err, ErrFetchFailed))
		assert.False(t, Is(err, ErrCacheMiss))
	})
}

func ExampleWrap() {
	err := Wrap(ErrCacheMiss, "vocabulary cache")
	fmt.Println(err)
	// Output: vocabulary cache: cache miss
}
