package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationRecord_Resolved(t *testing.T) {
	r := LocationRecord{Name: "Test ITI", Category: CategoryITI}
	assert.False(t, r.Resolved())

	r.Coordinates = &Coordinates{Latitude: 15.3647, Longitude: 75.1240}
	assert.True(t, r.Resolved())
}

func TestCountResolved(t *testing.T) {
	records := []LocationRecord{
		{Name: "a", Coordinates: &Coordinates{Latitude: 1, Longitude: 2}},
		{Name: "b"},
		{Name: "c", Coordinates: &Coordinates{}},
	}
	assert.Equal(t, 2, CountResolved(records))
	assert.Equal(t, 0, CountResolved(nil))
}
