package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

func newTestPublisher(t *testing.T) (*FSPublisher, afero.Fs) {
	t.Helper()
	base := afero.NewMemMapFs()
	pub, err := NewPublisher(base, "public")
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	return pub, base
}

func TestPublisherWriteCreatesParents(t *testing.T) {
	ctx := context.Background()
	pub, base := newTestPublisher(t)

	err := pub.Write(ctx, interfaces.WriteRequest{
		Path:        "guides/intro/index.html",
		Contents:    []byte("<html></html>"),
		ContentType: "text/html; charset=utf-8",
		Category:    interfaces.ArtifactPage,
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := afero.ReadFile(base, "public/guides/intro/index.html")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "<html></html>" {
		t.Fatalf("unexpected contents %q", data)
	}
}

func TestPublisherRejectsEscapes(t *testing.T) {
	ctx := context.Background()
	pub, _ := newTestPublisher(t)

	for _, p := range []string{"../outside.html", "a/../../outside.html", "/etc/passwd"} {
		err := pub.Write(ctx, interfaces.WriteRequest{Path: p, Contents: []byte("x")})
		if !errors.Is(err, ErrPathEscapesRoot) {
			t.Fatalf("expected escape rejection for %q, got %v", p, err)
		}
	}

	if err := pub.Write(ctx, interfaces.WriteRequest{Path: "  ", Contents: []byte("x")}); !errors.Is(err, ErrArtifactPathRequired) {
		t.Fatalf("expected path-required error, got %v", err)
	}
	if err := pub.Remove(ctx, "../outside.html"); !errors.Is(err, ErrPathEscapesRoot) {
		t.Fatalf("expected escape rejection on remove, got %v", err)
	}
}

func TestPublisherRemoveToleratesMissing(t *testing.T) {
	ctx := context.Background()
	pub, _ := newTestPublisher(t)

	if err := pub.Remove(ctx, "never/written.html"); err != nil {
		t.Fatalf("expected missing target to be fine, got %v", err)
	}

	if err := pub.Write(ctx, interfaces.WriteRequest{Path: "css/site.css", Contents: []byte("body{}")}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := pub.Remove(ctx, "css"); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if _, err := afero.ReadFile(pub.Fs(), "css/site.css"); err == nil {
		t.Fatal("expected directory contents to be removed")
	}
}

func TestPublisherManifestRoundTrip(t *testing.T) {
	ctx := context.Background()
	pub, _ := newTestPublisher(t)

	data, err := pub.Manifest(ctx)
	if err != nil {
		t.Fatalf("manifest before write: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil manifest before first build, got %q", data)
	}

	payload := []byte(`{"version":1}`)
	if err := pub.Write(ctx, interfaces.WriteRequest{
		Path:     ManifestFileName,
		Contents: payload,
		Category: interfaces.ArtifactManifest,
	}); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	data, err = pub.Manifest(ctx)
	if err != nil {
		t.Fatalf("manifest after write: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("unexpected manifest %q", data)
	}
}
