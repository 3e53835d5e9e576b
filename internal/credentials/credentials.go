// Package credentials selects the Publizon credential set for an agency.
//
// Two deployment generations exist: a static directory parsed from
// configuration at startup, and a remote directory that fetches credential
// lists from the identity service under a cached service token. Both satisfy
// Resolver.
package credentials

import "context"

// Credentials is one agency's Publizon credential record. RetailerID is
// injected as the clientId header on outbound provider requests.
type Credentials struct {
	LicenseKey string `json:"licenseKey"`
	RetailerID string `json:"retailerId"`
}

// Complete reports whether both required fields are present. Incomplete
// records are treated the same as missing ones.
func (c Credentials) Complete() bool {
	return c.LicenseKey != "" && c.RetailerID != ""
}

// Resolver looks up the credential record for an agency.
type Resolver interface {
	Lookup(ctx context.Context, agencyID string) (Credentials, error)
}
