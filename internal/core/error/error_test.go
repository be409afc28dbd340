package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapEntity(t *testing.T) {
	cause := errors.New("database is closed")

	err := WrapEntity(fmt.Errorf("failed to query food: %w", cause))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, EntityErrorMessage, err.Message)
	assert.True(t, errors.Is(err, cause))

	assert.Nil(t, WrapEntity(nil))
}

func TestWrapModel(t *testing.T) {
	cause := errors.New("resource exhausted")

	overloaded := WrapModel(cause, http.StatusServiceUnavailable)
	require.Error(t, overloaded)
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(overloaded))
	assert.Equal(t, ModelErrorMessage, overloaded.Message)

	// a provider error without a status still gets a gateway status
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapModel(cause, 0)))
	assert.Nil(t, WrapModel(nil, http.StatusServiceUnavailable))
}

func TestWrapRedis(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusOf(WrapRedis(redis.Nil)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("connection refused"))))
	assert.Nil(t, WrapRedis(nil))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, 0, StatusOf(nil))
	assert.Equal(t, 0, StatusOf(errors.New("plain failure")))

	// the status survives further wrapping up the call chain
	wrapped := fmt.Errorf("node run: %w", WrapModel(errors.New("upstream"), http.StatusServiceUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(wrapped))
}
