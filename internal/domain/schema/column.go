package schema

// ColumnSpec describes a column at table creation time.
type ColumnSpec struct {
	Name string `json:"name"`
	// Relation optionally names another table. It is stored as metadata only;
	// nothing checks that the target exists. Empty means no relation.
	Relation string `json:"relation,omitempty"`
}

// Column is the creation-time form of a plain column.
func Column(name string) ColumnSpec {
	return ColumnSpec{Name: name}
}

// RelatedColumn is the creation-time form of a column pointing at target.
func RelatedColumn(name, target string) ColumnSpec {
	return ColumnSpec{Name: name, Relation: target}
}
