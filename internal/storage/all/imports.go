// Package all wires all built-in storage backends into the storage factory.
//
// Importing it for side effects makes the "mysql", "postgres", "sqlite" and
// "mssql" kinds available to storage.New:
//
//	import _ "salesetl/internal/storage/all"
package all

import (
	_ "salesetl/internal/storage/mssql"
	_ "salesetl/internal/storage/mysql"
	_ "salesetl/internal/storage/postgres"
	_ "salesetl/internal/storage/sqlite"
)
