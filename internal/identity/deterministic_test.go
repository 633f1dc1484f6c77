package identity

import (
	"testing"

	"github.com/google/uuid"
)

func TestUUIDIsDeterministic(t *testing.T) {
	first := UUID("go-docsite:test:alpha")
	second := UUID("go-docsite:test:alpha")

	if first == uuid.Nil {
		t.Fatalf("expected non-nil uuid")
	}
	if first != second {
		t.Fatalf("expected stable uuid, got %s and %s", first, second)
	}
}

func TestUUIDEmptyKey(t *testing.T) {
	if got := UUID("   "); got != uuid.Nil {
		t.Fatalf("expected uuid.Nil for blank key, got %s", got)
	}
}

func TestNamespacesDoNotCollide(t *testing.T) {
	doc := DocumentUUID("graphs/intro", "en")
	nav := NavNodeUUID("graphs/intro")
	locale := LocaleUUID("en")

	if doc == nav || doc == locale || nav == locale {
		t.Fatalf("expected distinct namespaces: doc=%s nav=%s locale=%s", doc, nav, locale)
	}
}

func TestDocumentUUIDSeparatesTranslations(t *testing.T) {
	en := DocumentUUID("graphs/intro", "en")
	ru := DocumentUUID("graphs/intro", "ru")

	if en == ru {
		t.Fatalf("expected per-locale document ids to differ")
	}
	if en != DocumentUUID("graphs/intro", "EN") {
		t.Fatalf("expected locale casing to be normalised")
	}
}
