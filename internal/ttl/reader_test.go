package ttl

import (
	"errors"
	"strings"
	"testing"
)

const sampleTTL = `@prefix logies: <https://data.vlaanderen.be/ns/logies#> .
# comment line

<https://example.org/id/logies/aaaaaaaa-1111-2222-3333-444444444444> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://data.vlaanderen.be/ns/logies#Logies> .
<https://example.org/id/logies/aaaaaaaa-1111-2222-3333-444444444444> <http://www.w3.org/2000/01/rdf-schema#label> "Hotel Astoria"@nl .
<https://example.org/id/logies/aaaaaaaa-1111-2222-3333-444444444444> <https://data.vlaanderen.be/ns/logies#aantalSlaapplaatsen> "42"^^<http://www.w3.org/2001/XMLSchema#integer> .
<https://example.org/id/addresses/bbbbbbbb-1111-2222-3333-444444444444> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/ns/locn#Address> .
not a statement line
`

func TestReadGroupsStatementsBySubject(t *testing.T) {
	subjects, err := Read(strings.NewReader(sampleTTL))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(subjects) != 2 {
		t.Fatalf("got %d subjects, want 2", len(subjects))
	}

	logies := subjects[0]
	if logies.URI != "https://example.org/id/logies/aaaaaaaa-1111-2222-3333-444444444444" {
		t.Errorf("first subject = %q", logies.URI)
	}
	if len(logies.Properties) != 3 {
		t.Errorf("logies has %d predicates, want 3", len(logies.Properties))
	}

	types := logies.Types()
	if len(types) != 1 || types[0] != "https://data.vlaanderen.be/ns/logies#Logies" {
		t.Errorf("types = %v", types)
	}
}

func TestReadRejectsEmptyStream(t *testing.T) {
	_, err := Read(strings.NewReader("@prefix x: <http://example.org/> .\n# nothing else\n"))
	if !errors.Is(err, ErrUnparsable) {
		t.Errorf("got %v, want ErrUnparsable", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile("/nonexistent/file.ttl")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("got %v, want not-found error", err)
	}
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Hotel Astoria"@nl`, "Hotel Astoria"},
		{`"42"^^<http://www.w3.org/2001/XMLSchema#integer>`, "42"},
		{`"plain"`, "plain"},
		{`<https://example.org/x>`, "https://example.org/x"},
		{`"Côte d'Or"@fr-BE`, "Côte d'Or"},
	}
	for _, tt := range tests {
		if got := ParseLiteral(tt.in); got != tt.want {
			t.Errorf("ParseLiteral(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLiteralLanguage(t *testing.T) {
	if got := LiteralLanguage(`"Hotel"@EN`); got != "en" {
		t.Errorf("got %q, want en", got)
	}
	if got := LiteralLanguage(`"Hotel"`); got != "nl" {
		t.Errorf("untagged literal language = %q, want nl", got)
	}
}
