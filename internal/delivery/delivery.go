// Package delivery defines the contract every transport implementation
// (HTTP today, others later) exposes to the application entry point.
package delivery

import "context"

// Delivery is a serving surface started by the application after all
// lifecycle hooks have run.
type Delivery interface {
	Serve(ctx context.Context) error
}
