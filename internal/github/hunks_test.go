package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValidLinesFromPatch(t *testing.T) {
	tests := []struct {
		name  string
		patch string
		want  []int
	}{
		{
			name:  "added and context lines",
			patch: "@@ -1,3 +1,4 @@\n package main\n+import \"fmt\"\n func main() {\n-\tprintln()\n+\tfmt.Println()",
			want:  []int{1, 2, 3, 4},
		},
		{
			name:  "two hunks",
			patch: "@@ -10,2 +10,2 @@\n a\n-b\n+c\n@@ -40 +40,2 @@\n x\n+y",
			want:  []int{10, 11, 40, 41},
		},
		{
			name:  "no newline marker",
			patch: "@@ -1 +1 @@\n-old\n\\ No newline at end of file\n+new\n\\ No newline at end of file",
			want:  []int{1},
		},
		{
			name:  "content before first hunk ignored",
			patch: "+stray\n@@ -5,1 +7,1 @@\n+line",
			want:  []int{7},
		},
		{
			name:  "malformed header resets",
			patch: "@@ -1 +1 @@\n+a\n@@ broken @@\n+b",
			want:  []int{1},
		},
		{
			name:  "empty patch",
			patch: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseValidLinesFromPatch(tt.patch)
			assert.Len(t, got, len(tt.want))
			for _, line := range tt.want {
				assert.True(t, got.Contains(line), "line %d missing", line)
			}
		})
	}
}
