package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryError(t *testing.T) {
	err := &QueryError{Status: 404, Code: "42P01", Message: `relation "guestbook" does not exist`}

	assert.Equal(t, `relation "guestbook" does not exist (code 42P01) [status 404]`, err.Error())
	assert.True(t, errors.Is(err, ErrDatabase))
	assert.False(t, errors.Is(err, ErrUnavailable))

	wrapped := fmt.Errorf("list entries: %w", err)
	var qe *QueryError
	assert.True(t, errors.As(wrapped, &qe))
	assert.Equal(t, "42P01", qe.Code)
}

func TestQueryError_EmptyMessage(t *testing.T) {
	assert.Equal(t, "query failed", (&QueryError{}).Error())
}
