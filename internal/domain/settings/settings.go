// Package settings holds the store-wide configuration record managed
// through the admin surface.
package settings

import "context"

// Settings is the single store configuration row: branding, contact
// details, and payment instructions shown at checkout.
type Settings struct {
	StoreName           string
	Tagline             string
	ContactEmail        string
	Phone               string
	Address             string
	ThemeColor          string
	LogoURL             string
	PaymentInstructions string
}

// Repository persists the settings record. There is exactly one record;
// Get returns defaults when nothing has been saved yet.
type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}
