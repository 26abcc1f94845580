package e2e

import (
	"github.com/cucumber/godog"

	"phonetrack/e2e/steps/auth"
	"phonetrack/e2e/steps/common"
	"phonetrack/e2e/steps/tracking"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	auth.RegisterSteps(ctx, tc)
	tracking.RegisterSteps(ctx, tc)
}
