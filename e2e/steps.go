package e2e

import (
	"github.com/cucumber/godog"

	"nutri/e2e/steps/common"
	"nutri/e2e/steps/food"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	food.RegisterSteps(ctx, tc)
}
