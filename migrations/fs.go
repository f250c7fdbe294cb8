// Package migrations embeds the SQL schema for the remote row store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
