package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "file:// URI is converted to local path",
			uri:  "file:///Users/test/documents/file.txt",
			want: "/Users/test/documents/file.txt",
		},
		{
			name: "file:// URI with spaces",
			uri:  "file:///Users/test/my documents/file.txt",
			want: "/Users/test/my documents/file.txt",
		},
		{
			name: "bare path passes through unchanged",
			uri:  "/Users/test/documents/file.txt",
			want: "/Users/test/documents/file.txt",
		},
		{
			name: "relative path passes through unchanged",
			uri:  "relative/path/to/file.txt",
			want: "relative/path/to/file.txt",
		},
		{
			name: "empty string passes through",
			uri:  "",
			want: "",
		},
		{
			name: "windows-style path passes through",
			uri:  "C:\\Users\\test\\file.txt",
			want: "C:\\Users\\test\\file.txt",
		},
		{
			name: "file:// prefix only",
			uri:  "file://",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePath(tt.uri)
			assert.Equal(t, tt.want, got)
		})
	}
}
