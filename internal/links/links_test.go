package links

import (
	"testing"

	"github.com/relaydesk/relaydesk/internal/ai"
)

func TestSerialize_Empty(t *testing.T) {
	if got := Serialize(nil); got != "Sources:" {
		t.Errorf("Serialize(nil) = %q, want %q", got, "Sources:")
	}
	if got := Serialize([]ai.Link{}); got != "Sources:" {
		t.Errorf("Serialize(empty) = %q, want %q", got, "Sources:")
	}
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name  string
		links []ai.Link
		want  string
	}{
		{
			name:  "single link",
			links: []ai.Link{{URL: "https://docs.example.com/a", Title: "Guide"}},
			want:  "Sources:\n%[Guide](https://docs.example.com/a)",
		},
		{
			name:  "missing title defaults to Untitled",
			links: []ai.Link{{URL: "https://docs.example.com/a"}},
			want:  "Sources:\n%[Untitled](https://docs.example.com/a)",
		},
		{
			name:  "link without url is dropped",
			links: []ai.Link{{Title: "Orphan"}, {URL: "https://docs.example.com/a", Title: "Guide"}},
			want:  "Sources:\n%[Guide](https://docs.example.com/a)",
		},
		{
			name: "url collision keeps shorter title",
			links: []ai.Link{
				{URL: "a", Title: "Long Title"},
				{URL: "a", Title: "X"},
			},
			want: "Sources:\n%[X](a)",
		},
		{
			name: "url collision keeps earlier entry on tie",
			links: []ai.Link{
				{URL: "a", Title: "AA"},
				{URL: "a", Title: "BB"},
			},
			want: "Sources:\n%[AA](a)",
		},
		{
			name: "title collision keeps shorter url",
			links: []ai.Link{
				{URL: "short", Title: "T"},
				{URL: "shorter", Title: "T"},
			},
			want: "Sources:\n%[T](short)",
		},
		{
			name: "title collision via defaulted titles",
			links: []ai.Link{
				{URL: "https://docs.example.com/long-path"},
				{URL: "https://d.ex/a"},
			},
			want: "Sources:\n%[Untitled](https://d.ex/a)",
		},
		{
			name: "disjoint links keep input order",
			links: []ai.Link{
				{URL: "https://docs.example.com/b", Title: "B"},
				{URL: "https://docs.example.com/a", Title: "A"},
			},
			want: "Sources:\n%[B](https://docs.example.com/b)\n%[A](https://docs.example.com/a)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Serialize(tt.links); got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}
