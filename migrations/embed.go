// Package migrations holds the versioned SQL schema, embedded so the server
// binary and the integration tests can apply it without a checkout.
package migrations

import "embed"

// FS contains every *.up.sql / *.down.sql pair
//
//go:embed *.sql
var FS embed.FS
