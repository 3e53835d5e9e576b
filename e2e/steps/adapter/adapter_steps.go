package adapter

import (
	"context"

	"github.com/cucumber/godog"
)

// Paths the mockhttp service serves the upstream dependencies on. The adapter
// under test is configured with matching SMAUG_URL, USERINFO_URL and
// PUBLIZON_URL values.
const (
	smaugPath    = "/smaug/configuration"
	userinfoPath = "/userinfo"
	providerBase = "/publizon"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	RegisterMock(request, response map[string]any) error
}

// RegisterSteps registers step definitions that arrange the upstream mocks
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adapterSteps{tc: tc}

	ctx.Step(`^smaug returns status (\d+) for token "([^"]*)"$`, steps.smaugStatus)
	ctx.Step(`^smaug knows token "([^"]*)" as an anonymous client of agency "([^"]*)"$`, steps.smaugAnonymous)
	ctx.Step(`^smaug knows token "([^"]*)" as an authenticated client of agency "([^"]*)"$`, steps.smaugAuthenticated)
	ctx.Step(`^smaug returns a configuration without an agencyId for token "([^"]*)"$`, steps.smaugWithoutAgency)
	ctx.Step(`^userinfo maps token "([^"]*)" to municipality agency "([^"]*)"$`, steps.userinfoMunicipality)
	ctx.Step(`^userinfo has no municipality agency for token "([^"]*)"$`, steps.userinfoEmpty)
	ctx.Step(`^the provider answers (GET|POST) "([^"]*)" for agency "([^"]*)"$`, steps.providerAnswers)
	ctx.Step(`^the provider answers (GET|POST) "([^"]*)" for agency "([^"]*)" with card number "([^"]*)"$`, steps.providerAnswersWithCard)
	ctx.Step(`^the provider rejects (GET|POST) "([^"]*)" for agency "([^"]*)" with status (\d+) and message "([^"]*)"$`, steps.providerRejects)
}

type adapterSteps struct {
	tc TestContext
}

func (s *adapterSteps) smaugStatus(ctx context.Context, status int, token string) error {
	return s.tc.RegisterMock(
		map[string]any{
			"method": "GET",
			"path":   smaugPath,
			"query":  map[string]any{"token": token},
		},
		map[string]any{"status": status, "body": ""},
	)
}

func (s *adapterSteps) smaugAnonymous(ctx context.Context, token, agencyID string) error {
	return s.smaugConfiguration(token, map[string]any{
		"agencyId": agencyID,
		"app":      map[string]any{"clientId": "some-clientId"},
	})
}

func (s *adapterSteps) smaugAuthenticated(ctx context.Context, token, agencyID string) error {
	return s.smaugConfiguration(token, map[string]any{
		"agencyId": agencyID,
		"app":      map[string]any{"clientId": "some-clientId"},
		"user":     map[string]any{"uniqueId": "some-uniqueId"},
	})
}

func (s *adapterSteps) smaugWithoutAgency(ctx context.Context, token string) error {
	return s.smaugConfiguration(token, map[string]any{
		"app": map[string]any{"clientId": "some-clientId"},
	})
}

func (s *adapterSteps) smaugConfiguration(token string, body map[string]any) error {
	return s.tc.RegisterMock(
		map[string]any{
			"method": "GET",
			"path":   smaugPath,
			"query":  map[string]any{"token": token},
		},
		map[string]any{"status": 200, "body": body},
	)
}

func (s *adapterSteps) userinfoMunicipality(ctx context.Context, token, agencyID string) error {
	return s.userinfoAttributes(token, map[string]any{"municipalityAgencyId": agencyID})
}

func (s *adapterSteps) userinfoEmpty(ctx context.Context, token string) error {
	return s.userinfoAttributes(token, map[string]any{})
}

func (s *adapterSteps) userinfoAttributes(token string, attributes map[string]any) error {
	return s.tc.RegisterMock(
		map[string]any{
			"method":  "GET",
			"path":    userinfoPath,
			"headers": map[string]any{"authorization": "Bearer " + token},
		},
		map[string]any{"status": 200, "body": map[string]any{"attributes": attributes}},
	)
}

func (s *adapterSteps) providerAnswers(ctx context.Context, method, path, agencyID string) error {
	return s.registerProvider(method, path, credentialHeaders(agencyID),
		200, map[string]any{"message": "Hello from Publizon"})
}

func (s *adapterSteps) providerAnswersWithCard(ctx context.Context, method, path, agencyID, cardNumber string) error {
	headers := credentialHeaders(agencyID)
	headers["cardnumber"] = cardNumber
	return s.registerProvider(method, path, headers,
		200, map[string]any{"message": "Hello from Publizon"})
}

func (s *adapterSteps) providerRejects(ctx context.Context, method, path, agencyID string, status int, message string) error {
	return s.registerProvider(method, path, credentialHeaders(agencyID),
		status, map[string]any{"message": message})
}

func (s *adapterSteps) registerProvider(method, path string, headers map[string]any, status int, body map[string]any) error {
	return s.tc.RegisterMock(
		map[string]any{
			"method":  method,
			"path":    providerBase + path,
			"headers": headers,
		},
		map[string]any{"status": status, "body": body},
	)
}

// credentialHeaders returns the provider headers the adapter is expected to
// inject for an agency, given the credential list the adapter under test is
// started with ("<agencyId>,licenseKey-<agencyId>,retailer-<agencyId>").
func credentialHeaders(agencyID string) map[string]any {
	return map[string]any{
		"clientid":   "retailer-" + agencyID,
		"licensekey": "licenseKey-" + agencyID,
	}
}
