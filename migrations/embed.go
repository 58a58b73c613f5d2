// Package migrations holds the versioned SQL that builds the hospital CRM
// schema. Files are applied in version order by db.Migrator.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
