package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanMutate(t *testing.T) {
	owner := uint(7)

	assert.True(t, CanMutate(Actor{ID: 7}, &owner), "owner may mutate")
	assert.False(t, CanMutate(Actor{ID: 8}, &owner), "other users may not")
	assert.True(t, CanMutate(Actor{ID: 8, IsAdmin: true}, &owner), "admins always may")
}

// A post without an author is mutable by admins only; an id comparison
// against a missing reference must not be the thing deciding that.
func TestCanMutateAuthorlessResource(t *testing.T) {
	assert.False(t, CanMutate(Actor{ID: 1}, nil))
	assert.False(t, CanMutate(Actor{ID: 0}, nil))
	assert.True(t, CanMutate(Actor{ID: 1, IsAdmin: true}, nil))
}
