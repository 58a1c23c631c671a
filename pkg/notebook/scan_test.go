package notebook

import (
	"testing"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCanonicalID(t *testing.T) {
	tests := []struct {
		name string
		node interface{}
		want string
	}{
		{
			name: "top level string",
			node: "0f8fad5b-d9cb-469f-a165-70867728950e",
			want: "0f8fad5b-d9cb-469f-a165-70867728950e",
		},
		{
			name: "nested deep in positional noise",
			node: []interface{}{
				nil, float64(3),
				[]interface{}{"metadata", []interface{}{nil, "b5a07e2f-11d3-4c7e-9c70-3f2a917640aa"}},
			},
			want: "b5a07e2f-11d3-4c7e-9c70-3f2a917640aa",
		},
		{
			name: "uppercase groups accepted",
			node: []interface{}{"0F8FAD5B-D9CB-469F-A165-70867728950E"},
			want: "0F8FAD5B-D9CB-469F-A165-70867728950E",
		},
		{
			name: "first match wins in document order",
			node: []interface{}{
				"0f8fad5b-d9cb-469f-a165-70867728950e",
				"b5a07e2f-11d3-4c7e-9c70-3f2a917640aa",
			},
			want: "0f8fad5b-d9cb-469f-a165-70867728950e",
		},
		{
			name: "right length but not hex grouping",
			node: []interface{}{"this-string-is-exactly-36-chars-long"},
			want: "",
		},
		{
			name: "braced form rejected by length guard",
			node: []interface{}{"{0f8fad5b-d9cb-469f-a165-70867728950e}"},
			want: "",
		},
		{
			name: "no strings at all",
			node: []interface{}{nil, float64(1), []interface{}{float64(2)}},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findCanonicalID(tt.node))
		})
	}
}

func TestFindArtifactURL(t *testing.T) {
	patterns := []glob.Glob{
		glob.MustCompile("*googleusercontent.com*"),
		glob.MustCompile("data:image/*"),
	}

	tests := []struct {
		name string
		node interface{}
		want string
	}{
		{
			name: "hosted url nested in artifact record",
			node: []interface{}{
				[]interface{}{"artifact-1", nil, []interface{}{"https://lh3.googleusercontent.com/a/b"}},
			},
			want: "https://lh3.googleusercontent.com/a/b",
		},
		{
			name: "inline data url",
			node: []interface{}{"data:image/png;base64,iVBORw0KGgo="},
			want: "data:image/png;base64,iVBORw0KGgo=",
		},
		{
			name: "unrelated urls skipped",
			node: []interface{}{"https://example.com/image.png", "plain text"},
			want: "",
		},
		{
			name: "empty response",
			node: []interface{}{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findArtifactURL(tt.node, patterns))
		})
	}
}

func TestFindArtifactURL_NoPatterns(t *testing.T) {
	require.Empty(t, findArtifactURL([]interface{}{"https://lh3.googleusercontent.com/a"}, nil))
}
