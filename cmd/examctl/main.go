// Command examctl is a terminal client for the exam-monitoring API.
//
// Usage:
//
//	examctl <command> [flags] [args]
//
// Commands:
//
//	login      log in and store the credential pair
//	register   create an account and log in with it
//	logout     revoke the refresh token and clear stored credentials
//	whoami     show the logged-in user
//	profile    update first name, last name or email
//	incidents  list incidents (-building, -verified, -search)
//	verify     mark an incident as verified
//	unverify   clear the verified mark of an incident
//	delete     delete an incident
//	buildings  list buildings available as filters
//	stats      show dashboard and per-type statistics
//	watch      refresh the incident list periodically
//	version    print the build version
//
// Configuration is read from examwatch.yaml (or CONFIG_PATH), the environment
// and an optional .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/heartmarshall/examwatch/internal/app"
	"github.com/heartmarshall/examwatch/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	if os.Args[1] == "version" {
		fmt.Println(app.BuildVersion())
		return
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg.Log, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		stop()
		log.Fatalf("init: %v", err)
	}

	c := &cli{app: a, in: os.Stdin, out: os.Stdout}
	err = c.run(ctx, os.Args[1], os.Args[2:])

	if cerr := a.Close(); cerr != nil {
		logger.Warn("close", "error", cerr)
	}
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		usage(os.Stderr)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "examctl:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: examctl <command> [flags] [args]

commands:
  login      -username NAME [-password PASS] [-force]
  register   -username NAME -email EMAIL [-password PASS] [-first F] [-last L] [-phone P] [-avatar FILE]
  logout
  whoami
  profile    [-first F] [-last L] [-email EMAIL]
  incidents  [-building B] [-verified true|false] [-search TEXT]
  verify     ID
  unverify   ID
  delete     ID
  buildings
  stats
  watch      [-interval D] [-metrics-addr ADDR] [-building B] [-verified true|false] [-search TEXT]
  version`)
}
