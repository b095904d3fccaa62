package slack

import "testing"

func TestToMrkdwn(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bold",
			in:   "this is **important** text",
			want: "this is *important* text",
		},
		{
			name: "italic",
			in:   "an *emphasized* word",
			want: "an _emphasized_ word",
		},
		{
			name: "heading becomes bold line",
			in:   "# Summary\n\nbody text",
			want: "*Summary*\n\nbody text",
		},
		{
			name: "link",
			in:   "see [the docs](https://example.com/docs)",
			want: "see <https://example.com/docs|the docs>",
		},
		{
			name: "inline code",
			in:   "run `go env` first",
			want: "run `go env` first",
		},
		{
			name: "fenced code block",
			in:   "```\nfmt.Println(1)\n```",
			want: "```\nfmt.Println(1)\n```",
		},
		{
			name: "unordered list",
			in:   "- one\n- two",
			want: "• one\n• two",
		},
		{
			name: "ordered list",
			in:   "1. first\n2. second",
			want: "1. first\n2. second",
		},
		{
			name: "blockquote",
			in:   "> quoted line",
			want: "> quoted line",
		},
		{
			name: "escapes angle brackets",
			in:   "a < b && b > c",
			want: "a &lt; b &amp;&amp; b &gt; c",
		},
		{
			name: "plain text unchanged",
			in:   "just a sentence.",
			want: "just a sentence.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToMrkdwn(tt.in)
			if got != tt.want {
				t.Errorf("ToMrkdwn(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
