package remote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompareValues(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(1500 * time.Millisecond)

	tests := []struct {
		name string
		a, b any
		want int
	}{
		{name: "times", a: early, b: late, want: -1},
		{name: "time strings", a: late.Format(time.RFC3339Nano), b: early.Format(time.RFC3339Nano), want: 1},
		{name: "mixed time forms", a: early, b: early.Format(time.RFC3339Nano), want: 0},
		{name: "numbers", a: 2.0, b: 10, want: -1},
		{name: "strings", a: "b", b: "a", want: 1},
		{name: "nil first", a: nil, b: "a", want: -1},
		{name: "both nil", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareValues(tt.a, tt.b))
		})
	}
}

func TestApply(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := Fields{"title": "old", "likes": []any{"u1"}}

	Apply(doc, Fields{
		"title":     "new",
		"updatedAt": ServerTimestamp,
		"likes":     ArrayUnion("u1", "u2"),
	}, now)

	assert.Equal(t, "new", doc["title"])
	assert.Equal(t, now, doc["updatedAt"])
	assert.Equal(t, []any{"u1", "u2"}, doc["likes"])

	Apply(doc, Fields{"likes": ArrayRemove("u1", "u3")}, now)
	assert.Equal(t, []any{"u2"}, doc["likes"])

	Apply(doc, Fields{"tags": ArrayUnion("go")}, now)
	assert.Equal(t, []any{"go"}, doc["tags"])
}

func TestQueryMatches(t *testing.T) {
	q := Where("blogId", "p1")
	assert.True(t, q.Matches(Fields{"blogId": "p1"}))
	assert.False(t, q.Matches(Fields{"blogId": "p2"}))
	assert.False(t, q.Matches(Fields{}))
	assert.True(t, Query{}.Matches(Fields{}))
}
