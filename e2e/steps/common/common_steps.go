package common

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	ResetMocks() error
	Request(method, path string, headers map[string]string) error
	LastStatus() int
	ResponseField(field string) (any, error)
}

// RegisterSteps registers generic request and assertion step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the mock services are reset$`, steps.resetMocks)
	ctx.Step(`^I send (GET|POST) "([^"]*)" without authorization$`, steps.requestWithoutAuthorization)
	ctx.Step(`^I send (GET|POST) "([^"]*)" with token "([^"]*)"$`, steps.requestWithToken)
	ctx.Step(`^the response status should be (\d+)$`, steps.assertStatus)
	ctx.Step(`^the response message should be "([^"]*)"$`, steps.assertMessage)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) resetMocks(ctx context.Context) error {
	return s.tc.ResetMocks()
}

func (s *commonSteps) requestWithoutAuthorization(ctx context.Context, method, path string) error {
	return s.tc.Request(method, path, nil)
}

func (s *commonSteps) requestWithToken(ctx context.Context, method, path, token string) error {
	return s.tc.Request(method, path, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

func (s *commonSteps) assertStatus(ctx context.Context, expected int) error {
	if s.tc.LastStatus() != expected {
		return fmt.Errorf("expected status %d, got %d", expected, s.tc.LastStatus())
	}
	return nil
}

func (s *commonSteps) assertMessage(ctx context.Context, expected string) error {
	message, err := s.tc.ResponseField("message")
	if err != nil {
		return err
	}
	if message != expected {
		return fmt.Errorf("expected message %q, got %q", expected, message)
	}
	return nil
}
