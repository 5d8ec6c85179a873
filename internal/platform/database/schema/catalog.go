// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package schema

// CatalogTable represents one of the catalog tables. Image and Documents are
// empty for tables without those columns.
type CatalogTable struct {
	Table        string
	CodeSequence string
	CodePrefix   string

	ID        string
	Code      string
	Name      string
	Slug      string
	Status    string
	Image     string
	Documents string
	IsDeleted string
	DeletedAt string
	CreatedAt string
	UpdatedAt string
}

func catalogTable(table, sequence, prefix string) CatalogTable {
	return CatalogTable{
		Table:        table,
		CodeSequence: sequence,
		CodePrefix:   prefix,

		ID:        "id",
		Code:      "code",
		Name:      "name",
		Slug:      "slug",
		Status:    "status",
		IsDeleted: "isdeleted",
		DeletedAt: "deletedat",
		CreatedAt: "createdat",
		UpdatedAt: "updatedat",
	}
}

// Samples is the schema definition for samples.
var Samples = catalogTable("samples", "samples_code_seq", "SMP")

// Artists is the schema definition for artists.
var Artists = func() CatalogTable {
	t := catalogTable("artists", "artists_code_seq", "ART")
	t.Documents = "verificationdocuments"
	return t
}()

// Categories is the schema definition for categories.
var Categories = func() CatalogTable {
	t := catalogTable("categories", "categories_code_seq", "CAT")
	t.Image = "image"
	return t
}()

// Carts is the schema definition for carts.
var Carts = catalogTable("carts", "carts_code_seq", "CRT")

// Columns returns the columns present on this table in scan order.
func (t CatalogTable) Columns() []string {
	columns := []string{t.ID, t.Code, t.Name, t.Slug, t.Status}
	if t.Image != "" {
		columns = append(columns, t.Image)
	}
	if t.Documents != "" {
		columns = append(columns, t.Documents)
	}
	return append(columns, t.IsDeleted, t.DeletedAt, t.CreatedAt, t.UpdatedAt)
}
