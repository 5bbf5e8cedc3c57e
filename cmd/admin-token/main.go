// Command admin-token prints a signed operator token for the write API,
// using ADMIN_JWT_SECRET from the environment or .env file.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"galaxy-forge/internal/middleware"
	"galaxy-forge/internal/shared/config"
)

func main() {
	subject := flag.String("subject", "operator", "token subject")
	role := flag.String("role", middleware.RoleAdmin, "role claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize configuration: %v\n", err)
		os.Exit(1)
	}
	secret := config.GlobalConfig.Admin.JWTSecret
	if len(secret) < 32 {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET must be set and at least 32 characters long")
		os.Exit(1)
	}

	token, err := middleware.IssueToken(secret, *subject, *role, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
