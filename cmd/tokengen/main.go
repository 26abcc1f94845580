// Package main mints bearer tokens for local testing. It signs with the same
// secret the server would load, so run it with the server's environment.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	jwttoken "phonetrack/internal/jwt_token"
	"phonetrack/internal/platform/config"
	id "phonetrack/pkg/domain"
)

type tokenOutput struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Usage     string    `json:"usage"`
}

func main() {
	userID := flag.String("user-id", "", "User ID (UUID). Generated if empty.")
	email := flag.String("email", "dev@example.com", "Email claim")
	ttl := flag.Duration("ttl", 0, "Token lifetime (defaults to jwt.token_ttl)")
	asJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if err := run(*userID, *email, *ttl, *asJSON); err != nil {
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		os.Exit(1)
	}
}

func run(rawUserID, email string, ttl time.Duration, asJSON bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = cfg.JWT.TokenTTL
	}

	uid := id.NewUserID()
	if rawUserID != "" {
		if uid, err = id.ParseUserID(rawUserID); err != nil {
			return err
		}
	}

	svc := jwttoken.NewJWTService(cfg.JWT.Secret, ttl)
	token, err := svc.Issue(uid, email)
	if err != nil {
		return err
	}
	claim, err := svc.Verify(token)
	if err != nil {
		return err
	}

	if cfg.UsesInsecureSecret() {
		fmt.Fprintln(os.Stderr, "warning: signed with the built-in development secret")
	}

	out := tokenOutput{
		Token:     token,
		UserID:    uid.String(),
		Email:     email,
		ExpiresAt: claim.ExpiresAt,
		Usage:     "curl -H 'Authorization: Bearer " + token + "' http://localhost:8080/tracking/records",
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Println(out.Token)
	return nil
}
