package auth

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	UniqueEmail(email string) string
	SetTokenFor(name, token string)
	SetUserIDFor(name, userID string)
}

// RegisterSteps registers signup, login and access-guard steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^I sign up with email "([^"]*)" and password "([^"]*)"$`, steps.signUp)
	ctx.Step(`^I sign up with email "([^"]*)", password "([^"]*)", name "([^"]*)" and phone "([^"]*)"$`, steps.signUpFull)
	ctx.Step(`^I log in with email "([^"]*)" and password "([^"]*)"$`, steps.logIn)
	ctx.Step(`^"([^"]*)" is signed up and logged in$`, steps.signedUpAndLoggedIn)
	ctx.Step(`^I save the token as "([^"]*)"$`, steps.saveToken)
	ctx.Step(`^I GET "([^"]*)" without a token$`, steps.getWithoutToken)
	ctx.Step(`^I GET "([^"]*)" with token "([^"]*)"$`, steps.getWithRawToken)
}

type authSteps struct {
	tc TestContext
}

func (s *authSteps) signUp(ctx context.Context, email, password string) error {
	return s.signUpFull(ctx, email, password, "", "")
}

func (s *authSteps) signUpFull(_ context.Context, email, password, name, phone string) error {
	return s.tc.POST("/signup", map[string]string{
		"email":    s.tc.UniqueEmail(email),
		"password": password,
		"name":     name,
		"phone":    phone,
	}, nil)
}

func (s *authSteps) logIn(_ context.Context, email, password string) error {
	return s.tc.POST("/login", map[string]string{
		"email":    s.tc.UniqueEmail(email),
		"password": password,
	}, nil)
}

// signedUpAndLoggedIn registers name@example.com and stores its token under name.
func (s *authSteps) signedUpAndLoggedIn(ctx context.Context, name string) error {
	email := name + "@example.com"
	if err := s.signUpFull(ctx, email, "pw123", name, "555"); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("signup for %s returned %d", name, status)
	}
	if err := s.logIn(ctx, email, "pw123"); err != nil {
		return err
	}
	return s.saveToken(ctx, name)
}

func (s *authSteps) saveToken(_ context.Context, name string) error {
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	user, err := s.tc.GetResponseField("user")
	if err != nil {
		return err
	}
	s.tc.SetTokenFor(name, fmt.Sprint(token))
	if u, ok := user.(map[string]any); ok {
		s.tc.SetUserIDFor(name, fmt.Sprint(u["id"]))
	}
	return nil
}

func (s *authSteps) getWithoutToken(_ context.Context, path string) error {
	return s.tc.GET(path, nil)
}

func (s *authSteps) getWithRawToken(_ context.Context, path, token string) error {
	return s.tc.GET(path, map[string]string{"Authorization": "Bearer " + token})
}
