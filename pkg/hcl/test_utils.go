package hcl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leowmjw/go-temporal-eventstream/pkg/temporal"
)

// AssertPipelinesEqual compares two PipelineRequest objects for equality in tests
func AssertPipelinesEqual(t *testing.T, expected, actual *temporal.PipelineRequest) {
	assert.Equal(t, expected.StreamID, actual.StreamID)
	assert.Equal(t, expected.MJDRef, actual.MJDRef)
	assert.Equal(t, expected.DT, actual.DT)
	assert.Equal(t, expected.Meta, actual.Meta)

	// Compare the good time intervals
	assert.Equal(t, len(expected.GTI), len(actual.GTI))
	for i := 0; i < len(expected.GTI) && i < len(actual.GTI); i++ {
		assert.InDelta(t, expected.GTI[i].Start, actual.GTI[i].Start, 1e-9)
		assert.InDelta(t, expected.GTI[i].End, actual.GTI[i].End, 1e-9)
	}

	// Compare steps
	assert.Equal(t, len(expected.Steps), len(actual.Steps))
	for i := 0; i < len(expected.Steps) && i < len(actual.Steps); i++ {
		AssertStepsEqual(t, &expected.Steps[i], &actual.Steps[i])
	}
}

// AssertStepsEqual compares two PipelineStep objects for equality in tests
func AssertStepsEqual(t *testing.T, expected, actual *temporal.PipelineStep) {
	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.Type, actual.Type)
	assert.Equal(t, expected.Column, actual.Column)
	assert.Equal(t, expected.Lo, actual.Lo)
	assert.Equal(t, expected.Hi, actual.Hi)
	assert.Equal(t, expected.UsePI, actual.UsePI)
	assert.Equal(t, expected.Mask, actual.Mask)
	assert.Equal(t, expected.Deadtime, actual.Deadtime)
	assert.Equal(t, expected.Paralyzable, actual.Paralyzable)
	assert.Equal(t, expected.Delta, actual.Delta)
	assert.Equal(t, expected.MJDRef, actual.MJDRef)
	assert.Equal(t, expected.Other, actual.Other)
	assert.Equal(t, expected.DT, actual.DT)
	assert.Equal(t, expected.Rows, actual.Rows)
	assert.Equal(t, expected.Seed, actual.Seed)
}
