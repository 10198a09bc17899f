package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"todotree"},
			want: []string{"todotree"},
		},
		{
			name: "direct todo id first token",
			in:   []string{"todotree", "todo-abc123"},
			want: []string{"todotree", "show", "todo-abc123"},
		},
		{
			name: "direct todo id after value flag",
			in:   []string{"todotree", "--dir", "./tmp-test-store", "todo-abc123"},
			want: []string{"todotree", "--dir", "./tmp-test-store", "show", "todo-abc123"},
		},
		{
			name: "direct todo id after equals flag",
			in:   []string{"todotree", "--dir=./tmp-test-store", "todo-abc123"},
			want: []string{"todotree", "--dir=./tmp-test-store", "show", "todo-abc123"},
		},
		{
			name: "direct todo id after bool flag",
			in:   []string{"todotree", "--pretty", "todo-abc123"},
			want: []string{"todotree", "--pretty", "show", "todo-abc123"},
		},
		{
			name: "direct todo id after double dash",
			in:   []string{"todotree", "--dir", "./tmp-test-store", "--", "todo-abc123"},
			want: []string{"todotree", "--dir", "./tmp-test-store", "--", "show", "todo-abc123"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"todotree", "show", "todo-abc123"},
			want: []string{"todotree", "show", "todo-abc123"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"todotree", "wat"},
			want: []string{"todotree", "wat"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectLookupArgs(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
