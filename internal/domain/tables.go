package domain

// Row is one relational row addressed by its primary key field "id".
// Values are whatever the driver produced for the column type; a column
// missing from the map is treated as NULL by the differ.
type Row map[string]any

// PrimaryKeyField is the key column shared by every core and join table.
const PrimaryKeyField = "id"

// SystemColumns are maintained by the store itself and are excluded from
// field comparison and from INSERT/UPDATE column lists.
var SystemColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
}

// CoreTables is the fixed, ordered list of tables the detection engine
// compares. Join tables come after the entity tables they reference so
// change reports read top-down.
var CoreTables = []string{
	"logies",
	"tourist_attractions",
	"addresses",
	"contact_points",
	"geometries",
	"identifiers",
	"logies_addresses",
	"logies_contacts",
	"logies_geometries",
}

// ApplyOrder is the dependency order for applying changes: tables with no
// outbound references first, join tables last. Within one table the
// processor applies DELETE, then UPDATE, then INSERT.
var ApplyOrder = []string{
	"identifiers",
	"geometries",
	"contact_points",
	"addresses",
	"logies",
	"tourist_attractions",
	"logies_addresses",
	"logies_contacts",
	"logies_geometries",
}

// TableColumns is the natural column order per table, excluding audit
// columns. The differ reports changed fields in this order.
var TableColumns = map[string][]string{
	"logies":              {"id", "uri", "name", "alternative_name", "description", "sleeping_places", "rental_units_count", "accessibility_summary"},
	"tourist_attractions": {"id", "uri", "name", "alternative_name", "description"},
	"addresses":           {"id", "uri", "country", "municipality", "street_name", "house_number", "postal_code", "full_address", "province"},
	"contact_points":      {"id", "uri", "telephone", "email", "website", "fax", "contact_type"},
	"geometries":          {"id", "uri", "latitude", "longitude", "geometry_type", "wkt_geometry"},
	"identifiers":         {"id", "uri", "identifier_value", "notation", "schema_agency", "related_entity_id", "related_entity_type"},
	"logies_addresses":    {"id", "logies_id", "address_id"},
	"logies_contacts":     {"id", "logies_id", "contact_point_id"},
	"logies_geometries":   {"id", "logies_id", "geometry_id"},
}

// ParentReferenceColumns maps a child table to the column referencing a
// parent entity and the parent table it points at. Used by the pre-flight
// validator to spot inserts racing against parent deletes.
var ParentReferenceColumns = map[string]struct {
	Column      string
	ParentTable string
}{
	"logies_addresses":  {Column: "logies_id", ParentTable: "logies"},
	"logies_contacts":   {Column: "logies_id", ParentTable: "logies"},
	"logies_geometries": {Column: "logies_id", ParentTable: "logies"},
	"identifiers":       {Column: "related_entity_id", ParentTable: "logies"},
}

// ChangelogTable returns the audit table name for a core table.
func ChangelogTable(table string) string {
	return table + "_changelog"
}

// IsCoreTable reports whether the differ knows the given table.
func IsCoreTable(name string) bool {
	for _, t := range CoreTables {
		if t == name {
			return true
		}
	}
	return false
}
