package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// import extensions to trigger registration
	_ "github.com/birdayz/kbuild/extensions/awssecretsmanager"
	_ "github.com/birdayz/kbuild/extensions/core"
)

var (
	version = "snapshot"
	commit  = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCmd()
	cmd.Version = fmt.Sprintf("%s-%s", version, commit)
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
