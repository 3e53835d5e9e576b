package e2e

import (
	"github.com/cucumber/godog"

	"publizon-adapter/e2e/steps/adapter"
	"publizon-adapter/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register mock-arrangement steps for the upstream services
	adapter.RegisterSteps(ctx, tc)
}
