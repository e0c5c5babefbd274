// migrations встраивает SQL-миграции схемы в бинарник (goose).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
