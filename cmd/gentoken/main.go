// cmd/gentoken prints a signed bearer token for local testing.
// Usage: go run ./cmd/gentoken -role admin -sub 7d9f… -ttl 8h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"hotelbilling/internal/config"
	"hotelbilling/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	role := flag.String("role", middleware.RoleAdmin, "admin | staff | client")
	sub := flag.String("sub", "", "token subject; for clients the client UUID (random when empty)")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	switch *role {
	case middleware.RoleAdmin, middleware.RoleStaff, middleware.RoleClient:
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	subject := *sub
	if subject == "" {
		subject = uuid.NewString()
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		Role: *role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
