// Package main runs portal operator tasks: bootstrapping the SuperAdmin,
// seeding sample exercises and inspecting the access rules.
//
//	portalctl bootstrap --email root@example.com --first-name Ada --last-name Admin --password secret1
//	portalctl seed
//	portalctl access --role Editor
//	portalctl check --actor-role Admin --target-role Editor
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/ieltsportal/internal/cmd/portalctl"
	"github.com/louisbranch/ieltsportal/internal/platform/config"
)

func main() {
	root, err := portalctl.NewRootCommand()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		config.Exitf("Error: %v", err)
	}
}
