// bookdir-token mints a development access token for a principal. In real
// deployments tokens come from the identity provider; this exists so local
// callers can exercise the mutating endpoints.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"bookdir/backend/internal/auth"
	"bookdir/backend/internal/domain"
)

func main() {
	principal := flag.String("principal", "", "principal to embed as the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("BOOKDIR_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "BOOKDIR_JWT_SECRET is required")
		os.Exit(1)
	}
	if *principal == "" {
		fmt.Fprintln(os.Stderr, "-principal is required")
		os.Exit(1)
	}

	token, err := auth.CreateAccessToken(secret, domain.Principal(*principal), *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
