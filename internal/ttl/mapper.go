package ttl

import (
	"log"
	"strconv"
	"strings"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
)

// Dataset is the relational materialization of one TTL file: rows per core
// table, keyed the way the production schema keys them.
type Dataset struct {
	Rows map[string][]domain.Row

	// SkippedSubjects counts subjects whose kind has no core table.
	SkippedSubjects int
}

// relationshipPredicates link a parent subject to a satellite entity. The
// mapper turns them into join rows (or, for identifiers, back-references).
var relationshipPredicates = map[string]domain.EntityKind{
	"http://www.w3.org/ns/adms#identifier": domain.KindIdentifier,
	"http://schema.org/contactPoint":       domain.KindContactPoint,
	"http://www.w3.org/ns/locn#location":   domain.KindGeometry,
	"http://www.w3.org/ns/locn#address":    domain.KindAddress,
}

type capturedLink struct {
	parentURI string
	kind      domain.EntityKind
	childURI  string
}

// MapSubjects classifies every subject and maps the persisted kinds onto
// core-table rows, then resolves captured relationships into join rows.
// Subjects that cannot be mapped are counted and skipped, never fatal.
func MapSubjects(subjects []*Subject) *Dataset {
	ds := &Dataset{Rows: map[string][]domain.Row{}}
	var links []capturedLink
	kindByID := map[string]domain.EntityKind{}
	identifierRows := map[string]domain.Row{}

	for _, subject := range subjects {
		kind := domain.Classify(subject.URI, subject.Types())

		for predicate, values := range subject.Properties {
			if linkKind, ok := relationshipPredicates[predicate]; ok {
				for _, value := range values {
					links = append(links, capturedLink{
						parentURI: subject.URI,
						kind:      linkKind,
						childURI:  strings.Trim(value, "<>"),
					})
				}
			}
		}

		if !kind.Persisted() {
			ds.SkippedSubjects++
			continue
		}

		entityID := domain.ExtractEntityID(subject.URI)
		kindByID[entityID] = kind

		var row domain.Row
		switch kind {
		case domain.KindLogies:
			row = mapLogies(entityID, subject)
		case domain.KindTouristAttraction:
			row = mapAttraction(entityID, subject)
		case domain.KindAddress:
			row = mapAddress(entityID, subject)
		case domain.KindContactPoint:
			row = mapContactPoint(entityID, subject)
		case domain.KindGeometry:
			row = mapGeometry(entityID, subject)
		case domain.KindIdentifier:
			row = mapIdentifier(entityID, subject)
			identifierRows[entityID] = row
		}

		if row == nil {
			ds.SkippedSubjects++
			continue
		}
		ds.Rows[kind.Table()] = append(ds.Rows[kind.Table()], row)
	}

	ds.applyLinks(links, kindByID, identifierRows)
	return ds
}

// applyLinks resolves parent/child references into join rows. Identifier
// links are folded into the identifier row itself; the other satellites get
// a join-table row with a deterministic id so repeated snapshots agree.
func (ds *Dataset) applyLinks(links []capturedLink, kindByID map[string]domain.EntityKind, identifierRows map[string]domain.Row) {
	for _, link := range links {
		parentID := domain.ExtractEntityID(link.parentURI)
		childID := domain.ExtractEntityID(link.childURI)

		parentKind, ok := kindByID[parentID]
		if !ok || parentKind != domain.KindLogies {
			// Only accommodations carry join rows in the core schema.
			if link.kind == domain.KindIdentifier {
				ds.linkIdentifier(identifierRows, childID, parentID, parentKind)
			}
			continue
		}

		switch link.kind {
		case domain.KindIdentifier:
			ds.linkIdentifier(identifierRows, childID, parentID, parentKind)
		case domain.KindAddress:
			ds.Rows["logies_addresses"] = append(ds.Rows["logies_addresses"], domain.Row{
				"id":         domain.JoinRowID(parentID, childID),
				"logies_id":  parentID,
				"address_id": childID,
			})
		case domain.KindContactPoint:
			ds.Rows["logies_contacts"] = append(ds.Rows["logies_contacts"], domain.Row{
				"id":               domain.JoinRowID(parentID, childID),
				"logies_id":        parentID,
				"contact_point_id": childID,
			})
		case domain.KindGeometry:
			ds.Rows["logies_geometries"] = append(ds.Rows["logies_geometries"], domain.Row{
				"id":          domain.JoinRowID(parentID, childID),
				"logies_id":   parentID,
				"geometry_id": childID,
			})
		}
	}
}

func (ds *Dataset) linkIdentifier(identifierRows map[string]domain.Row, childID, parentID string, parentKind domain.EntityKind) {
	row, ok := identifierRows[childID]
	if !ok {
		return
	}
	row["related_entity_id"] = parentID
	if parentKind != "" {
		row["related_entity_type"] = string(parentKind)
	}
}

func mapLogies(entityID string, subject *Subject) domain.Row {
	row := domain.Row{
		"id":                    entityID,
		"uri":                   subject.URI,
		"name":                  nil,
		"alternative_name":      nil,
		"description":           nil,
		"sleeping_places":       int64(0),
		"rental_units_count":    int64(0),
		"accessibility_summary": nil,
	}

	for predicate, values := range subject.Properties {
		for _, value := range values {
			switch {
			case strings.Contains(predicate, "altLabel") || strings.Contains(predicate, "alternativeName"):
				if row["alternative_name"] == nil {
					row["alternative_name"] = ParseLiteral(value)
				}
			case strings.Contains(strings.ToLower(predicate), "name") || strings.Contains(predicate, "prefLabel"):
				if row["name"] == nil {
					row["name"] = ParseLiteral(value)
				}
			case strings.Contains(predicate, "description"):
				if row["description"] == nil {
					row["description"] = ParseLiteral(value)
				}
			case strings.Contains(predicate, "aantalSlaapplaatsen"):
				if n, err := strconv.ParseInt(ParseLiteral(value), 10, 64); err == nil {
					row["sleeping_places"] = n
				}
			case strings.Contains(predicate, "aantalVerhuureenheden"):
				if n, err := strconv.ParseInt(ParseLiteral(value), 10, 64); err == nil {
					row["rental_units_count"] = n
				}
			}
		}
	}

	// A logies without a name is noise in the source; the dataset carries a
	// handful of anonymous stubs that only confuse downstream diffs.
	if row["name"] == nil {
		log.Printf("ttl: logies %s has no name, skipping", entityID)
		return nil
	}
	return row
}

func mapAttraction(entityID string, subject *Subject) domain.Row {
	row := domain.Row{
		"id":               entityID,
		"uri":              subject.URI,
		"name":             nil,
		"alternative_name": nil,
		"description":      nil,
	}

	for predicate, values := range subject.Properties {
		for _, value := range values {
			switch {
			case strings.Contains(predicate, "altLabel"):
				if row["alternative_name"] == nil {
					row["alternative_name"] = ParseLiteral(value)
				}
			case strings.Contains(strings.ToLower(predicate), "name") || strings.Contains(predicate, "prefLabel"):
				if row["name"] == nil {
					row["name"] = ParseLiteral(value)
				}
			case strings.Contains(predicate, "description"):
				if row["description"] == nil {
					row["description"] = ParseLiteral(value)
				}
			}
		}
	}

	if row["name"] == nil {
		log.Printf("ttl: attraction %s has no name, skipping", entityID)
		return nil
	}
	return row
}

func mapAddress(entityID string, subject *Subject) domain.Row {
	row := domain.Row{
		"id":           entityID,
		"uri":          subject.URI,
		"country":      nil,
		"municipality": nil,
		"street_name":  nil,
		"house_number": nil,
		"postal_code":  nil,
		"full_address": nil,
		"province":     nil,
	}

	for predicate, values := range subject.Properties {
		lower := strings.ToLower(predicate)
		for _, value := range values {
			clean := ParseLiteral(value)
			switch {
			case strings.Contains(lower, "land") || strings.Contains(lower, "country"):
				if row["country"] == nil {
					row["country"] = clean
				}
			case strings.Contains(lower, "gemeentenaam") || strings.Contains(lower, "municipality"):
				row["municipality"] = clean
			case strings.Contains(predicate, "thoroughfare") || strings.Contains(lower, "straatnaam"):
				row["street_name"] = clean
			case strings.Contains(lower, "huisnummer"):
				row["house_number"] = clean
			case strings.Contains(predicate, "postCode") || strings.Contains(lower, "postcode"):
				row["postal_code"] = clean
			case strings.Contains(predicate, "adminUnitL2") || strings.Contains(lower, "provincie"):
				row["province"] = clean
			}
		}
	}

	var parts []string
	for _, field := range []string{"street_name", "house_number", "postal_code", "municipality"} {
		if v, ok := row[field].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		row["full_address"] = strings.Join(parts, ", ")
	}

	return row
}

func mapContactPoint(entityID string, subject *Subject) domain.Row {
	row := domain.Row{
		"id":           entityID,
		"uri":          subject.URI,
		"telephone":    nil,
		"email":        nil,
		"website":      nil,
		"fax":          nil,
		"contact_type": "general",
	}

	for predicate, values := range subject.Properties {
		lower := strings.ToLower(predicate)
		for _, value := range values {
			clean := ParseLiteral(value)
			switch {
			case strings.Contains(lower, "telephone"):
				row["telephone"] = strings.TrimPrefix(clean, "tel:")
			case strings.Contains(lower, "email"):
				row["email"] = strings.TrimPrefix(clean, "mailto:")
			case strings.Contains(lower, "page") || strings.Contains(lower, "url"):
				row["website"] = clean
			case strings.Contains(lower, "fax"):
				row["fax"] = strings.TrimPrefix(clean, "tel:")
			}
		}
	}

	return row
}

func mapGeometry(entityID string, subject *Subject) domain.Row {
	row := domain.Row{
		"id":            entityID,
		"uri":           subject.URI,
		"latitude":      nil,
		"longitude":     nil,
		"geometry_type": "Point",
		"wkt_geometry":  nil,
	}

	for predicate, values := range subject.Properties {
		lower := strings.ToLower(predicate)
		for _, value := range values {
			clean := ParseLiteral(value)
			switch {
			case strings.Contains(predicate, "asWKT"):
				row["wkt_geometry"] = clean
			case strings.Contains(lower, "lat"):
				if f, err := strconv.ParseFloat(clean, 64); err == nil {
					row["latitude"] = f
				}
			case strings.Contains(lower, "long"):
				if f, err := strconv.ParseFloat(clean, 64); err == nil {
					row["longitude"] = f
				}
			}
		}
	}

	return row
}

func mapIdentifier(entityID string, subject *Subject) domain.Row {
	row := domain.Row{
		"id":                  entityID,
		"uri":                 subject.URI,
		"identifier_value":    nil,
		"notation":            nil,
		"schema_agency":       nil,
		"related_entity_id":   nil,
		"related_entity_type": nil,
	}

	for predicate, values := range subject.Properties {
		lower := strings.ToLower(predicate)
		for _, value := range values {
			clean := ParseLiteral(value)
			switch {
			case strings.Contains(lower, "notation"):
				row["notation"] = clean
				if row["identifier_value"] == nil {
					row["identifier_value"] = clean
				}
			case strings.Contains(predicate, "schemaAgency"):
				row["schema_agency"] = clean
			}
		}
	}

	return row
}
