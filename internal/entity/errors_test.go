package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf_DirectError(t *testing.T) {
	err := NewNotFound(CollectionItems, "item-1")
	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
}

func TestCodeOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("workflow failed: %w", NewPermissionDenied(CollectionPosts, "post-1", "nope"))
	assert.Equal(t, ErrCodePermissionDenied, CodeOf(err))
	assert.True(t, IsPermissionDenied(err))
}

func TestCodeOf_ForeignError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("some io error")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}

func TestError_MessageIncludesEntity(t *testing.T) {
	err := NewNotFound(CollectionItems, "item-1")
	assert.Contains(t, err.Error(), "items/item-1")
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestError_MessageWithoutEntity(t *testing.T) {
	err := NewValidation("name must not be empty")
	assert.Equal(t, "VALIDATION_ERROR: name must not be empty", err.Error())
}

func TestIsHelpers(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFound(CollectionRooms, "r"), IsNotFound},
		{"permission denied", NewPermissionDenied(CollectionItems, "i", "x"), IsPermissionDenied},
		{"invalid state", NewInvalidState(CollectionItems, "i", "x"), IsInvalidState},
		{"already resolved", NewAlreadyResolved("p"), IsAlreadyResolved},
		{"validation", NewValidation("x"), IsValidation},
		{"aborted", NewAborted(5), IsAborted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.check(tc.err))
			assert.False(t, tc.check(errors.New("other")))
		})
	}
}

func TestValidResolveReason(t *testing.T) {
	for _, r := range []ResolveReason{ResolveSelfFound, ResolveFoundByOther, ResolveGaveUp, ResolveOther} {
		assert.True(t, ValidResolveReason(r), string(r))
	}
	assert.False(t, ValidResolveReason("FOUND_MAYBE"))
	assert.False(t, ValidResolveReason(""))
}

func TestRoom_SamePair_OrderIndependent(t *testing.T) {
	room := Room{UserIDs: [2]string{"alice", "bob"}}
	require.True(t, room.SamePair("alice", "bob"))
	require.True(t, room.SamePair("bob", "alice"))
	require.False(t, room.SamePair("alice", "carol"))
	require.True(t, room.HasUser("bob"))
	require.False(t, room.HasUser("carol"))
}
