package domain

import (
	"strings"
	"testing"
)

func TestClassifyByDeclaredType(t *testing.T) {
	tests := []struct {
		name  string
		uri   string
		types []string
		want  EntityKind
	}{
		{
			name:  "logies",
			uri:   "https://data.vlaanderen.be/id/logies/5e8a5e4f-6a1e-4a3f-9f3a-111111111111",
			types: []string{"https://data.vlaanderen.be/ns/logies#Logies"},
			want:  KindLogies,
		},
		{
			name:  "tourist attraction",
			uri:   "https://data.vlaanderen.be/id/tourist-attractions/abc",
			types: []string{"https://data.vlaanderen.be/ns/toerisme#TouristAttraction"},
			want:  KindTouristAttraction,
		},
		{
			name:  "address",
			uri:   "https://example.org/x",
			types: []string{"http://www.w3.org/ns/locn#Address"},
			want:  KindAddress,
		},
		{
			name:  "contact point",
			uri:   "https://example.org/x",
			types: []string{"http://schema.org/ContactPoint"},
			want:  KindContactPoint,
		},
		{
			name:  "geometry via Point",
			uri:   "https://example.org/x",
			types: []string{"http://www.opengis.net/ont/sf#Point"},
			want:  KindGeometry,
		},
		{
			name:  "identifier",
			uri:   "https://example.org/x",
			types: []string{"http://www.w3.org/ns/adms#Identifier"},
			want:  KindIdentifier,
		},
		{
			name:  "registration beats logies",
			uri:   "https://example.org/x",
			types: []string{"https://data.vlaanderen.be/ns/logies#Registratie", "https://data.vlaanderen.be/ns/logies#Logies"},
			want:  KindRegistration,
		},
		{
			name:  "rating",
			uri:   "https://example.org/x",
			types: []string{"http://schema.org/Rating"},
			want:  KindRating,
		},
		{
			name:  "media object",
			uri:   "https://example.org/x",
			types: []string{"http://schema.org/MediaObject"},
			want:  KindMediaObject,
		},
		{
			name:  "no type, logies URI segment",
			uri:   "https://data.vlaanderen.be/id/logies/xyz",
			types: nil,
			want:  KindLogies,
		},
		{
			name:  "nothing recognizable",
			uri:   "https://example.org/things/42",
			types: []string{"http://schema.org/Thing"},
			want:  KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.uri, tt.types); got != tt.want {
				t.Errorf("Classify(%q, %v) = %v, want %v", tt.uri, tt.types, got, tt.want)
			}
		})
	}
}

func TestClassifyMixedAttractionAndLogies(t *testing.T) {
	types := []string{
		"https://data.vlaanderen.be/ns/toerisme#TouristAttraction",
		"https://data.vlaanderen.be/ns/logies#Logies",
	}

	got := Classify("https://linked.toerismevlaanderen.be/id/tourist-attractions/11111111-2222-3333-4444-555555555555", types)
	if got != KindLogies {
		t.Errorf("mixed entity under /tourist-attractions/ = %v, want %v", got, KindLogies)
	}

	got = Classify("https://linked.toerismevlaanderen.be/id/other/11111111-2222-3333-4444-555555555555", types)
	if got != KindTouristAttraction {
		t.Errorf("mixed entity elsewhere = %v, want %v", got, KindTouristAttraction)
	}
}

func TestPersistedKindsHaveTables(t *testing.T) {
	kinds := []EntityKind{
		KindLogies, KindTouristAttraction, KindAddress,
		KindContactPoint, KindGeometry, KindIdentifier,
		KindRegistration, KindRating, KindMediaObject, KindUnknown,
	}
	for _, kind := range kinds {
		table := kind.Table()
		if kind.Persisted() && table == "" {
			t.Errorf("%v is persisted but has no table", kind)
		}
		if !kind.Persisted() && table != "" {
			t.Errorf("%v is not persisted but maps to table %q", kind, table)
		}
		if table != "" && !IsCoreTable(table) {
			t.Errorf("%v maps to unknown table %q", kind, table)
		}
	}
}

func TestExtractEntityID(t *testing.T) {
	uri := "https://data.vlaanderen.be/id/logies/A1B2C3D4-0000-1111-2222-333344445555"
	got := ExtractEntityID(uri)
	if got != "a1b2c3d4-0000-1111-2222-333344445555" {
		t.Errorf("ExtractEntityID(%q) = %q", uri, got)
	}

	// No UUID in the URI: a fresh one is generated each call.
	generated := ExtractEntityID("https://example.org/no-uuid-here")
	if len(generated) != 36 || strings.Count(generated, "-") != 4 {
		t.Errorf("generated id %q does not look like a UUID", generated)
	}
}

func TestJoinRowIDIsDeterministic(t *testing.T) {
	a := JoinRowID("parent-1", "child-1")
	b := JoinRowID("parent-1", "child-1")
	if a != b {
		t.Errorf("same pair produced different ids: %q vs %q", a, b)
	}
	if JoinRowID("parent-1", "child-2") == a {
		t.Error("different pairs produced the same id")
	}
	if JoinRowID("child-1", "parent-1") == a {
		t.Error("swapped pair produced the same id")
	}
}
