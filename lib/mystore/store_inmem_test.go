package mystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type venue struct {
	UID  string
	Name string
}

var (
	thePoint = venue{UID: "123", Name: "The Point"}
)

func TestStore(t *testing.T) {
	c := context.TODO()
	vs, cleanup, err := NewInMemoryStore[venue](c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Get not found", func(t *testing.T) {
		_, found, err := vs.Get(c, thePoint.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Put and get", func(t *testing.T) {
		err := vs.Put(c, thePoint.UID, thePoint)
		assert.NoError(t, err)

		got, found, err := vs.Get(c, thePoint.UID)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, thePoint, got)
	})

	t.Run("List", func(t *testing.T) {
		all, err := vs.List(c)
		assert.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("Remove", func(t *testing.T) {
		err := vs.Remove(c, thePoint.UID)
		assert.NoError(t, err)

		_, found, err := vs.Get(c, thePoint.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Transactional put is visible after commit", func(t *testing.T) {
		err := vs.RunInTransaction(c, func(c context.Context) error {
			return vs.Put(c, thePoint.UID, thePoint)
		})
		assert.NoError(t, err)

		_, found, err := vs.Get(c, thePoint.UID)
		assert.NoError(t, err)
		assert.True(t, found)
	})
}
