package render

import (
	"context"
	"testing"
	"time"
)

func renderSnippet(t *testing.T, r *Renderer, tpl string, data map[string]any) string {
	t.Helper()
	out, err := r.RenderString(context.Background(), tpl, data)
	if err != nil {
		t.Fatalf("render %q: %v", tpl, err)
	}
	return out
}

func TestRelurlFilter(t *testing.T) {
	r := newTestRenderer(t,
		WithBaseURL("https://docs.example.com/"),
		WithDefaultLocale("en"),
	)

	cases := []struct {
		name string
		tpl  string
		data map[string]any
		want string
	}{
		{
			name: "default locale has no prefix",
			tpl:  `{{ "/guides/install/"|relurl:"en" }}`,
			want: "https://docs.example.com/guides/install/",
		},
		{
			name: "other locales are prefixed",
			tpl:  `{{ "/guides/install/"|relurl:"es" }}`,
			want: "https://docs.example.com/es/guides/install/",
		},
		{
			name: "missing leading slash is added",
			tpl:  `{{ "assets/site.css"|relurl }}`,
			want: "https://docs.example.com/assets/site.css",
		},
		{
			name: "absolute URLs pass through",
			tpl:  `{{ "https://elsewhere.test/x"|relurl:"es" }}`,
			want: "https://elsewhere.test/x",
		},
		{
			name: "empty input yields site root",
			tpl:  `{{ ""|relurl }}`,
			want: "https://docs.example.com/",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := renderSnippet(t, r, tc.tpl, tc.data); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDatefmtFilter(t *testing.T) {
	r := newTestRenderer(t)
	when := time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

	got := renderSnippet(t, r, `{{ when|datefmt:"2006-01-02" }}`, map[string]any{"when": when})
	if got != "2025-06-15" {
		t.Fatalf("got %q", got)
	}

	got = renderSnippet(t, r, `{{ when|datefmt }}`, map[string]any{"when": when})
	if got != "June 15, 2025" {
		t.Fatalf("default layout got %q", got)
	}

	got = renderSnippet(t, r, `{{ when|datefmt }}`, map[string]any{"when": time.Time{}})
	if got != "" {
		t.Fatalf("zero time should render empty, got %q", got)
	}
}

func TestDatefmtFilterRejectsNonTime(t *testing.T) {
	r := newTestRenderer(t)
	if _, err := r.RenderString(context.Background(), `{{ when|datefmt }}`, map[string]any{"when": "not a time"}); err == nil {
		t.Fatal("expected type error from datefmt")
	}
}

func TestExcerptFilter(t *testing.T) {
	r := newTestRenderer(t)

	long := "The quick brown fox jumps over the lazy dog and keeps running far beyond the fence."
	got := renderSnippet(t, r, `{{ text|excerpt:40 }}`, map[string]any{"text": long})
	if got != "The quick brown fox jumps over the lazy..." {
		t.Fatalf("got %q", got)
	}

	got = renderSnippet(t, r, `{{ text|excerpt:200 }}`, map[string]any{"text": long})
	if got != long {
		t.Fatalf("short input should pass through, got %q", got)
	}

	got = renderSnippet(t, r, `{{ text|excerpt:40 }}`, map[string]any{
		"text": "<p>The <strong>quick</strong> brown fox jumps over the lazy dog and keeps running.</p>",
	})
	if got != "The quick brown fox jumps over the lazy..." {
		t.Fatalf("markup should be stripped, got %q", got)
	}
}
