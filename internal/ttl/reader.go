// Package ttl turns a Turtle dump of the Flemish tourism dataset into
// relational rows. The dataset is published as one flat statement per line,
// grouped by subject, which is what this reader relies on; it is a
// best-effort mapper, not a general RDF parser.
package ttl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	// ErrUnparsable is returned when a file yields no usable statements.
	ErrUnparsable = errors.New("ttl content is unparsable")
)

// RDFType is the predicate carrying an entity's declared types.
const RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// Subject is one RDF subject with its predicate/object multimap, in the
// order encountered in the file.
type Subject struct {
	URI        string
	Properties map[string][]string
}

// Types returns the declared rdf:type IRIs of the subject.
func (s *Subject) Types() []string {
	var types []string
	for _, value := range s.Properties[RDFType] {
		types = append(types, strings.Trim(value, "<>"))
	}
	return types
}

// First returns the first object for a predicate, or "".
func (s *Subject) First(predicate string) string {
	values := s.Properties[predicate]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// ReadFile parses a TTL file into its subjects.
func ReadFile(path string) ([]*Subject, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("ttl file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to open ttl file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses TTL statements from a reader, grouping them by subject. Lines
// that do not look like a complete <s> <p> o . statement are skipped; a
// stream that produces no subjects at all is reported as unparsable.
func Read(r io.Reader) ([]*Subject, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		subjects []*Subject
		byURI    = map[string]*Subject{}
		lines    int
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "@prefix") {
			continue
		}
		lines++

		if !strings.HasPrefix(line, "<") {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) < 3 {
			continue
		}

		subjectURI := strings.Trim(parts[0], "<>")
		predicate := strings.Trim(parts[1], "<>")
		object := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[2]), "."))
		if subjectURI == "" || predicate == "" || object == "" {
			continue
		}

		subject, ok := byURI[subjectURI]
		if !ok {
			subject = &Subject{URI: subjectURI, Properties: map[string][]string{}}
			byURI[subjectURI] = subject
			subjects = append(subjects, subject)
		}
		subject.Properties[predicate] = append(subject.Properties[predicate], object)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ttl stream: %w", err)
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("%w: no statements found", ErrUnparsable)
	}

	return subjects, nil
}

var multilingualPattern = regexp.MustCompile(`^"(.*)"@([a-zA-Z-]+)$`)

// ParseLiteral strips quoting, language tags and datatype suffixes from an
// object term. IRIs are returned without angle brackets.
func ParseLiteral(value string) string {
	value = strings.TrimSpace(value)

	if match := multilingualPattern.FindStringSubmatch(value); match != nil {
		return match[1]
	}
	// Typed literal: "42"^^<http://...#integer>
	if idx := strings.Index(value, `"^^`); idx > 0 && strings.HasPrefix(value, `"`) {
		return value[1:idx]
	}
	return strings.Trim(value, `"<>`)
}

// LiteralLanguage extracts the language tag of a literal, defaulting to
// Dutch, the dataset's primary language.
func LiteralLanguage(value string) string {
	if match := multilingualPattern.FindStringSubmatch(strings.TrimSpace(value)); match != nil {
		return strings.ToLower(match[2])
	}
	return "nl"
}
