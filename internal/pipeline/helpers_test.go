package pipeline

import "testing"

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		name      string
		override  string
		story     string
		fallback  string
		titleCase bool
		max       int
		want      string
	}{
		{"story title", "", "  AITA for   leaving? ", "Reddit Story", false, 60, "AITA for leaving?"},
		{"override wins", "My  Title", "ignored", "Reddit Story", false, 60, "My Title"},
		{"fallback", "", "", "Reddit Story", false, 60, "Reddit Story"},
		{"title case keeps acronyms", "", "AITA for leaving my job", "", true, 60, "AITA For Leaving My Job"},
		{"truncated", "", "abcdefghijklmnop", "", false, 10, "abcdefghi…"},
		{"no limit", "", "abcdefghijklmnop", "", false, 0, "abcdefghijklmnop"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeTitle(tc.override, tc.story, tc.fallback, tc.titleCase, tc.max)
			if got != tc.want {
				t.Fatalf("NormalizeTitle = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"AITA for skipping my sister's wedding?": "aita-for-skipping-my-sister-s-wedding",
		"  ---  ":                                "story",
		"Café déjà vu":                           "caf-d-j-vu",
		"TIFU: by cooking":                       "tifu-by-cooking",
	}
	for in, want := range cases {
		if got := Slug(in, 60); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Slug("one two three four", 7); got != "one-two" {
		t.Fatalf("Slug with limit = %q", got)
	}
}

func TestSplitStoryFile(t *testing.T) {
	title, body := splitStoryFile("\r\nTitle line\r\nBody one.\r\nBody two.\r\n")
	if title != "Title line" || body != "Body one.\nBody two." {
		t.Fatalf("unexpected split %q / %q", title, body)
	}
	title, body = splitStoryFile("only a title")
	if title != "only a title" || body != "" {
		t.Fatalf("unexpected single line split %q / %q", title, body)
	}
}
