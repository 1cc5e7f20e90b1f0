package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shandysiswandi/gootp/internal/app"
)

// @title           GoOTP API
// @version         1.0
// @description     GoOTP issues, verifies and manages one-time passcodes delivered by email.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		os.Exit(issueToken(os.Args[2:]))
	}

	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}

// issueToken prints an operator JWT for the subject given as the only argument.
func issueToken(args []string) int {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(os.Stderr, "usage: gootp token <subject>")
		return 2
	}

	token, err := app.IssueToken(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to issue token:", err)
		return 1
	}

	fmt.Println(token)
	return 0
}
