package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// EntityKind is the classification of an RDF subject.
type EntityKind string

const (
	KindLogies            EntityKind = "logies"
	KindTouristAttraction EntityKind = "tourist_attraction"
	KindAddress           EntityKind = "address"
	KindContactPoint      EntityKind = "contact_point"
	KindGeometry          EntityKind = "geometry"
	KindIdentifier        EntityKind = "identifier"
	KindRegistration      EntityKind = "registration"
	KindRating            EntityKind = "rating"
	KindQualityLabel      EntityKind = "quality_label"
	KindMediaObject       EntityKind = "media_object"
	KindRentalUnit        EntityKind = "rental_unit"
	KindRoom              EntityKind = "room"
	KindUnknown           EntityKind = "unknown"
)

// Persisted reports whether entities of this kind land in a core table.
// The dataset also carries registrations, ratings, media objects and
// similar satellites; the importer recognizes them but does not store them.
func (k EntityKind) Persisted() bool {
	switch k {
	case KindLogies, KindTouristAttraction, KindAddress, KindContactPoint, KindGeometry, KindIdentifier:
		return true
	}
	return false
}

// Table returns the core table a persisted kind maps to.
func (k EntityKind) Table() string {
	switch k {
	case KindLogies:
		return "logies"
	case KindTouristAttraction:
		return "tourist_attractions"
	case KindAddress:
		return "addresses"
	case KindContactPoint:
		return "contact_points"
	case KindGeometry:
		return "geometries"
	case KindIdentifier:
		return "identifiers"
	}
	return ""
}

// typeRule maps a substring of a declared rdf:type IRI to a kind. Rules are
// evaluated in order; the first match wins, so more specific signatures must
// come before generic ones.
type typeRule struct {
	signature string
	kind      EntityKind
}

var typeRules = []typeRule{
	{"Registratie", KindRegistration},
	{"Identifier", KindIdentifier},
	{"Address", KindAddress},
	{"ContactPoint", KindContactPoint},
	{"Geometry", KindGeometry},
	{"Point", KindGeometry},
	{"Rating", KindRating},
	{"Review", KindRating},
	{"Kwaliteitslabel", KindQualityLabel},
	{"MediaObject", KindMediaObject},
	{"ImageObject", KindMediaObject},
	{"Verhuureenheid", KindRentalUnit},
	{"Ruimte", KindRoom},
}

// uriRule maps a URI path segment to a kind when no declared type decided.
type uriRule struct {
	segment string
	kind    EntityKind
}

var uriRules = []uriRule{
	{"/logies/", KindLogies},
	{"/accommodations/", KindLogies},
	{"/tourist-attractions/", KindTouristAttraction},
	{"/rental-units/", KindRentalUnit},
	{"/verhuureenheden/", KindRentalUnit},
	{"/addresses/", KindAddress},
	{"/geometries/", KindGeometry},
	{"/contact-points/", KindContactPoint},
	{"/registrations/", KindRegistration},
	{"/identifiers/", KindIdentifier},
	{"/quality-labels/", KindQualityLabel},
}

// Classify determines the entity kind from the declared rdf:type IRIs and,
// failing that, from the subject URI. The rule tables above make the
// priority explicit rather than burying it in control flow.
//
// An entity declared both TouristAttraction and Logies is an accommodation
// that is also marketed as an attraction. Those are stored as logies when
// their URI lives under /tourist-attractions/ (the dataset publishes mixed
// entities there); a mixed entity elsewhere is treated as an attraction.
func Classify(subjectURI string, declaredTypes []string) EntityKind {
	for _, rule := range typeRules {
		for _, declared := range declaredTypes {
			if strings.Contains(declared, rule.signature) {
				return rule.kind
			}
		}
	}

	hasAttraction := false
	hasLogies := false
	for _, declared := range declaredTypes {
		if strings.Contains(declared, "TouristAttraction") {
			hasAttraction = true
		}
		if strings.Contains(declared, "Logies") || strings.Contains(declared, "logies") {
			hasLogies = true
		}
	}
	switch {
	case hasAttraction && hasLogies:
		if strings.Contains(subjectURI, "/tourist-attractions/") {
			return KindLogies
		}
		return KindTouristAttraction
	case hasLogies:
		return KindLogies
	case hasAttraction:
		return KindTouristAttraction
	}

	for _, rule := range uriRules {
		if strings.Contains(subjectURI, rule.segment) {
			return rule.kind
		}
	}

	return KindUnknown
}

var uriUUIDPattern = regexp.MustCompile(`[/#]([a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12})`)

// ExtractEntityID pulls the stable UUID out of a subject URI, or generates
// a fresh one when the URI carries none. Extraction is deterministic so the
// same entity keeps its id across snapshots.
func ExtractEntityID(subjectURI string) string {
	if match := uriUUIDPattern.FindStringSubmatch(subjectURI); match != nil {
		return strings.ToLower(match[1])
	}
	return uuid.New().String()
}

// JoinRowID derives a deterministic id for a relationship row from the two
// entity ids it links, so join rows diff cleanly across snapshots.
func JoinRowID(parentID, childID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(parentID+"|"+childID)).String()
}
