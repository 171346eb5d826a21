package food

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string) error
	PATCH(path string, body interface{}) error
	DELETE(path string) error
	GetStatusCode() int
	GetResponseField(field string) (interface{}, error)
	GetResponseList() ([]map[string]interface{}, error)
	Save(key, value string)
	Saved(key string) (string, bool)
}

// RegisterSteps registers food-specific step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &foodSteps{tc: tc}

	ctx.Step(`^I create a food "([^"]*)" with (\d+(?:\.\d+)?) calories, (\d+(?:\.\d+)?) protein, (\d+(?:\.\d+)?) carbs and (\d+(?:\.\d+)?) fat$`, steps.createFood)
	ctx.Step(`^I save the food id as "([^"]*)"$`, steps.saveFoodID)
	ctx.Step(`^I update food "([^"]*)" with calories (\d+(?:\.\d+)?)$`, steps.updateCalories)
	ctx.Step(`^I rename food "([^"]*)" to "([^"]*)"$`, steps.renameFood)
	ctx.Step(`^I get food "([^"]*)"$`, steps.getFood)
	ctx.Step(`^I delete food "([^"]*)"$`, steps.deleteFood)
	ctx.Step(`^the food list should contain "([^"]*)"$`, steps.listShouldContain)
}

type foodSteps struct {
	tc TestContext
}

func (s *foodSteps) createFood(ctx context.Context, name string, calories, protein, carbs, fat float64) error {
	return s.tc.POST("/foods", map[string]interface{}{
		"name":     name,
		"calories": calories,
		"protein":  protein,
		"carbs":    carbs,
		"fat":      fat,
	})
}

func (s *foodSteps) saveFoodID(ctx context.Context, alias string) error {
	value, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	foodID, ok := value.(string)
	if !ok || foodID == "" {
		return fmt.Errorf("response id is not a non-empty string: %v", value)
	}
	s.tc.Save(alias, foodID)
	return nil
}

func (s *foodSteps) path(alias string) (string, error) {
	foodID, ok := s.tc.Saved(alias)
	if !ok {
		return "", fmt.Errorf("no food saved as %q", alias)
	}
	return "/foods/" + foodID, nil
}

func (s *foodSteps) updateCalories(ctx context.Context, alias string, calories float64) error {
	path, err := s.path(alias)
	if err != nil {
		return err
	}
	return s.tc.PATCH(path, map[string]interface{}{"calories": calories})
}

func (s *foodSteps) renameFood(ctx context.Context, alias, name string) error {
	path, err := s.path(alias)
	if err != nil {
		return err
	}
	return s.tc.PATCH(path, map[string]interface{}{"name": name})
}

func (s *foodSteps) getFood(ctx context.Context, alias string) error {
	path, err := s.path(alias)
	if err != nil {
		return err
	}
	return s.tc.GET(path)
}

func (s *foodSteps) deleteFood(ctx context.Context, alias string) error {
	path, err := s.path(alias)
	if err != nil {
		return err
	}
	return s.tc.DELETE(path)
}

func (s *foodSteps) listShouldContain(ctx context.Context, name string) error {
	if err := s.tc.GET("/foods"); err != nil {
		return err
	}
	list, err := s.tc.GetResponseList()
	if err != nil {
		return err
	}
	for _, item := range list {
		if item["name"] == name {
			return nil
		}
	}
	return fmt.Errorf("food %q not in list of %d foods", name, len(list))
}
