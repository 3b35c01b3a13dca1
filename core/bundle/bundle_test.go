package bundle

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subject struct {
	ID int
}

func validSubject(s interface{}) bool {
	sub, ok := s.(*subject)
	return ok && sub != nil && sub.ID != 0
}

// newTestBuilder records the order sections run in.
func newTestBuilder(calls *[]string) *Builder {
	record := func(name string, payload interface{}) Routine {
		return func(ctx context.Context, st *State, param interface{}) error {
			*calls = append(*calls, name)
			st.Set(name, payload, true)
			return nil
		}
	}

	return NewBuilder("data",
		validSubject,
		Section{Name: "user", Run: record("user", "me")},
		Section{Name: "courses", Run: func(ctx context.Context, st *State, param interface{}) error {
			*calls = append(*calls, "courses")
			courses := []int{1, 2}
			if ids, ok := param.([]int); ok && len(ids) > 0 {
				courses = ids
			}
			st.Set("courses", courses, len(courses) > 0)
			return nil
		}},
		Section{Name: "statistics", Run: func(ctx context.Context, st *State, param interface{}) error {
			if err := st.Require(ctx, "courses"); err != nil {
				return err
			}
			*calls = append(*calls, "statistics")
			st.Set("statistics", len(st.Bundle["courses"].([]int)), true)
			return nil
		}},
		Section{Name: "badges", Run: record("badges", []string{"gold"})},
	)
}

func TestBuildInvalidSubject(t *testing.T) {
	var calls []string
	b := newTestBuilder(&calls)
	requested := map[string]interface{}{"courses": nil, "statistics": true, "badges": 0}

	for _, s := range []interface{}{nil, (*subject)(nil), &subject{ID: 0}, "user"} {
		bundle, err := b.Build(context.Background(), s, requested)
		require.NoError(t, err)
		assert.Equal(t, Bundle{"hasdata": false}, bundle)
	}
	assert.Empty(t, calls)
}

func TestBuildPrerequisites(t *testing.T) {
	var calls []string
	b := newTestBuilder(&calls)

	bundle, err := b.Build(context.Background(), &subject{ID: 3}, map[string]interface{}{"statistics": true})
	require.NoError(t, err)

	assert.True(t, bundle.Has("data"))
	assert.True(t, bundle.Has("courses"))
	assert.Equal(t, []int{1, 2}, bundle["courses"])
	assert.Equal(t, 2, bundle["statistics"])
	assert.NotContains(t, bundle, "badges")
	assert.Equal(t, []string{"user", "courses", "statistics"}, calls)
}

func TestBuildPopulatesOnce(t *testing.T) {
	var calls []string
	b := newTestBuilder(&calls)

	requested := map[string]interface{}{"statistics": true, "courses": []int{7}, "user": nil, "unknown": 1}
	bundle, err := b.Build(context.Background(), &subject{ID: 3}, requested)
	require.NoError(t, err)

	assert.Equal(t, []string{"user", "courses", "statistics"}, calls)
	assert.Equal(t, []int{7}, bundle["courses"])
	assert.Equal(t, 1, bundle["statistics"])
	assert.NotContains(t, bundle, "unknown")
}

func TestBuildPrimaryFirst(t *testing.T) {
	var calls []string
	b := newTestBuilder(&calls)

	_, err := b.Build(context.Background(), &subject{ID: 1}, map[string]interface{}{"badges": 0, "courses": nil})
	require.NoError(t, err)
	assert.Equal(t, "user", calls[0])
	assert.Equal(t, []string{"user", "courses", "badges"}, calls)
}

func TestBuildCycle(t *testing.T) {
	b := NewBuilder("data",
		validSubject,
		Section{Name: "user", Run: func(ctx context.Context, st *State, _ interface{}) error { return nil }},
		Section{Name: "a", Run: func(ctx context.Context, st *State, _ interface{}) error { return st.Require(ctx, "b") }},
		Section{Name: "b", Run: func(ctx context.Context, st *State, _ interface{}) error { return st.Require(ctx, "a") }},
	)

	_, err := b.Build(context.Background(), &subject{ID: 1}, map[string]interface{}{"a": nil})
	require.Error(t, err)
	assert.Equal(t, ErrCycle, errors.Cause(err))
}

func TestRequireUnknownSection(t *testing.T) {
	b := NewBuilder("data",
		validSubject,
		Section{Name: "user", Run: func(ctx context.Context, st *State, _ interface{}) error {
			return st.Require(ctx, "nope")
		}},
	)

	_, err := b.Build(context.Background(), &subject{ID: 1}, nil)
	assert.Error(t, err)
}
