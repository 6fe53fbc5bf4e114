package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigtrace/internal/syntax"
)

func TestParsePosition(t *testing.T) {
	u, err := syntax.Parse(context.Background(), "a.ts", []byte("const a = 1;\nconst b = a;\n"))
	require.NoError(t, err)
	t.Cleanup(u.Close)

	tests := []struct {
		arg  string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"19", 19, true},
		{"2:7", 19, true},
		{"1:1", 0, true},
		{"-1", 0, false},
		{"999", 0, false},
		{"9:1", 0, false},
		{"x:1", 0, false},
		{"1:y", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parsePosition(u, tt.arg)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
