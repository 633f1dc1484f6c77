package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// DocumentUUID keys a corpus document by route and locale. Translations of
// the same page share a route but carry distinct identifiers.
func DocumentUUID(route, locale string) uuid.UUID {
	return UUID("go-docsite:document:" + strings.ToLower(strings.TrimSpace(locale)) + ":" + strings.TrimSpace(route))
}

// NavNodeUUID keys a navigation node by its position trail within the tree.
func NavNodeUUID(trail string) uuid.UUID {
	return UUID("go-docsite:nav:" + strings.TrimSpace(trail))
}

// LocaleUUID keys a locale by its lowercase code.
func LocaleUUID(localeCode string) uuid.UUID {
	return UUID("go-docsite:locale:" + strings.ToLower(strings.TrimSpace(localeCode)))
}

// ThemeUUID keys a theme by its manifest path.
func ThemeUUID(themePath string) uuid.UUID {
	return UUID("go-docsite:theme:" + strings.TrimSpace(themePath))
}

// SiteUUID keys a site by its definition title plus base URL.
func SiteUUID(title, baseURL string) uuid.UUID {
	return UUID("go-docsite:site:" + strings.TrimSpace(title) + ":" + strings.TrimSpace(baseURL))
}
