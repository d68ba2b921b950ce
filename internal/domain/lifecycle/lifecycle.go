// Package lifecycle holds shared timing constants for application startup
// and shutdown hooks.
package lifecycle

import "time"

// DefaultTimeout bounds how long a single lifecycle hook may take.
const DefaultTimeout = 10 * time.Second
