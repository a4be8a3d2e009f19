package pipeline_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-data-etl/internal/pipeline"
)

type slowConverter struct {
	active  atomic.Int32
	maxSeen atomic.Int32
	panicOn string
}

func (c *slowConverter) Convert(_ context.Context, input string) pipeline.Conversion {
	n := c.active.Add(1)
	defer c.active.Add(-1)
	for {
		seen := c.maxSeen.Load()
		if n <= seen || c.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if filepath.Base(input) == c.panicOn {
		panic("boom")
	}
	time.Sleep(5 * time.Millisecond)
	return pipeline.Conversion{Input: input, Output: input + ".out", Outcome: pipeline.Converted}
}

func TestScheduler_Discover(t *testing.T) {
	d := newDirs(t)
	writeInput(t, d.in, "b.json", "{}")
	writeInput(t, d.in, "a.json", "{}")
	writeInput(t, d.in, "notes.txt", "")
	writeInput(t, d.in, ".upload-123.tmp", "")

	s := pipeline.NewScheduler(d.in, 2, &slowConverter{}, discardLogger())
	paths, err := s.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(d.in, "a.json"), filepath.Join(d.in, "b.json")}, paths)
}

func TestScheduler_ConvertAll_BoundedAndOrdered(t *testing.T) {
	c := &slowConverter{}
	s := pipeline.NewScheduler("unused", 3, c, discardLogger())

	paths := []string{"f0.json", "f1.json", "f2.json", "f3.json", "f4.json", "f5.json", "f6.json", "f7.json"}
	results := s.ConvertAll(context.Background(), paths)

	require.Len(t, results, len(paths))
	for i, r := range results {
		assert.Equal(t, paths[i], r.Input)
		assert.Equal(t, pipeline.Converted, r.Outcome)
	}
	assert.LessOrEqual(t, c.maxSeen.Load(), int32(3))
}

func TestScheduler_ConvertAll_IsolatesPanic(t *testing.T) {
	c := &slowConverter{panicOn: "f1.json"}
	s := pipeline.NewScheduler("unused", 2, c, discardLogger())

	results := s.ConvertAll(context.Background(), []string{"f0.json", "f1.json", "f2.json"})

	assert.Equal(t, pipeline.Converted, results[0].Outcome)
	assert.Equal(t, pipeline.Failed, results[1].Outcome)
	assert.Contains(t, results[1].Err.Error(), "boom")
	assert.Equal(t, pipeline.Converted, results[2].Outcome)
}
