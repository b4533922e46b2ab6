package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hackc.dev/n2t/pkg/utils"
)

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := utils.NewOrderedMap[string, int]()
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("m", 3)

	keys := []string{}
	for _, e := range m.Entries() {
		keys = append(keys, e.Key)
	}

	assert.Equal(t, []string{"z", "a", "m"}, keys)
	assert.Equal(t, []int{1, 2, 3}, m.Values())
}

func TestOrderedMapUpdateKeepsPosition(t *testing.T) {
	m := utils.NewOrderedMap[string, int]()
	m.Set("first", 1)
	m.Set("second", 2)
	m.Set("first", 99)

	assert.Equal(t, 2, m.Len())
	v, ok := m.Get("first")
	assert.True(t, ok)
	assert.Equal(t, 99, v)
	assert.Equal(t, "first", m.Entries()[0].Key)
}

func TestOrderedMapMissingKey(t *testing.T) {
	m := utils.NewOrderedMap[string, int]()
	_, ok := m.Get("missing")
	assert.False(t, ok)
}
