package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_ConfigErrors(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	_, err = NewClient(context.Background(), Config{DatabaseURL: "postgres://%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database URL")
}
