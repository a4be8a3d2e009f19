// Package all registers every built-in store backend. Import it for side
// effects from the wiring layer:
//
//	import _ "github.com/couchcryptid/weather-data-etl/internal/store/all"
package all

import (
	_ "github.com/couchcryptid/weather-data-etl/internal/store/duckdb"
	_ "github.com/couchcryptid/weather-data-etl/internal/store/postgres"
	_ "github.com/couchcryptid/weather-data-etl/internal/store/sqlite"
)
