// Package migrations embeds the SQL schema so the binary does not depend on its working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
