package builder

import "testing"

func TestOutputPath(t *testing.T) {
	cases := []struct {
		name      string
		route     string
		locale    string
		cleanURLs bool
		want      string
	}{
		{name: "home default locale", route: "", locale: "en", cleanURLs: true, want: "index.html"},
		{name: "home other locale", route: "", locale: "es", cleanURLs: true, want: "es/index.html"},
		{name: "clean urls", route: "guides/intro", locale: "en", cleanURLs: true, want: "guides/intro/index.html"},
		{name: "flat html", route: "guides/intro", locale: "en", cleanURLs: false, want: "guides/intro.html"},
		{name: "locale prefix clean", route: "guides/intro", locale: "es", cleanURLs: true, want: "es/guides/intro/index.html"},
		{name: "locale prefix flat", route: "guides/intro", locale: "es", cleanURLs: false, want: "es/guides/intro.html"},
		{name: "locale case folds", route: "guides/intro", locale: "EN", cleanURLs: true, want: "guides/intro/index.html"},
		{name: "slashes trimmed", route: "/guides/intro/", locale: "en", cleanURLs: false, want: "guides/intro.html"},
		{name: "backslashes normalised", route: `guides\intro`, locale: "en", cleanURLs: false, want: "guides/intro.html"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := outputPath(tc.route, tc.locale, "en", tc.cleanURLs)
			if got != tc.want {
				t.Fatalf("outputPath(%q, %q) = %q, want %q", tc.route, tc.locale, got, tc.want)
			}
		})
	}
}
