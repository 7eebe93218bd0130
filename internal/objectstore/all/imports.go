// Package all registers every built-in object storage backend ("s3" and
// "file") with the objectstore factory. Import it for side effects only.
package all

import (
	_ "salesetl/internal/objectstore/file"
	_ "salesetl/internal/objectstore/s3"
)
