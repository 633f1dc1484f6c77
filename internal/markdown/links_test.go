package markdown

import (
	"testing"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

func TestExtractLinks(t *testing.T) {
	source := []byte(`# Graph Notes

Start with [the intro](../graphs/intro.md) and the [setup](#setup) section.

![adjacency diagram](images/adjacency.png "Adjacency list")

Reference material lives at https://cp-algorithms.com for deep dives.
`)

	links, err := ExtractLinks(source, interfaces.ParseOptions{})
	if err != nil {
		t.Fatalf("ExtractLinks: %v", err)
	}

	if len(links) != 4 {
		t.Fatalf("expected 4 links, got %d: %#v", len(links), links)
	}

	if links[0].Kind != interfaces.LinkInline || links[0].Destination != "../graphs/intro.md" {
		t.Fatalf("unexpected first link: %+v", links[0])
	}
	if links[1].Kind != interfaces.LinkInline || links[1].Destination != "#setup" {
		t.Fatalf("unexpected anchor link: %+v", links[1])
	}
	if links[2].Kind != interfaces.LinkImage || links[2].Destination != "images/adjacency.png" {
		t.Fatalf("unexpected image link: %+v", links[2])
	}
	if links[2].Title != "Adjacency list" {
		t.Fatalf("expected image title, got %q", links[2].Title)
	}
	if links[3].Kind != interfaces.LinkAuto || links[3].Destination != "https://cp-algorithms.com" {
		t.Fatalf("unexpected autolink: %+v", links[3])
	}
}

func TestExtractLinks_ResolvedReferenceStyle(t *testing.T) {
	source := []byte(`See [the handbook][hb] for details.

[hb]: https://example.com/handbook
`)

	links, err := ExtractLinks(source, interfaces.ParseOptions{})
	if err != nil {
		t.Fatalf("ExtractLinks: %v", err)
	}

	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d: %#v", len(links), links)
	}
	if links[0].Destination != "https://example.com/handbook" {
		t.Fatalf("expected reference target, got %q", links[0].Destination)
	}
}

func TestExtractLinks_None(t *testing.T) {
	links, err := ExtractLinks([]byte("no references here"), interfaces.ParseOptions{})
	if err != nil {
		t.Fatalf("ExtractLinks: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no links, got %#v", links)
	}
}
