// Package migrations встраивает схему локальной базы клиента.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
