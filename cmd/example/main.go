package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/mo"

	"github.com/go-ctap/biometry/pkg/biometry"
	"github.com/go-ctap/biometry/pkg/biometrytypes"
	"github.com/go-ctap/biometry/pkg/bridge"
	"github.com/go-ctap/biometry/pkg/bridgeproxy"
	"github.com/go-ctap/biometry/pkg/options"
)

func main() {
	var (
		reason        = flag.String("reason", "", "prompt message shown to the user")
		allowPasscode = flag.Bool("allow-passcode", false, "permit the device passcode as alternate proof")
		serve         = flag.Bool("serve", false, "serve the bridge on the local pipe/socket instead of prompting once")
		endpoint      = flag.String("endpoint", "", "pipe/socket path (empty for the platform default)")
	)
	flag.Parse()

	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	}))

	client := biometry.NewClient(options.WithLogger(logger))

	if *serve {
		ln, err := bridgeproxy.Listen(*endpoint)
		if err != nil {
			panic(err)
		}

		registry := bridge.NewRegistry(client, options.WithLogger(logger))
		server := bridgeproxy.NewServer(registry, options.WithLogger(logger))
		if err := server.Serve(context.Background(), ln); err != nil {
			panic(err)
		}
		return
	}

	ctx := context.Background()

	availability := client.CheckBiometry(ctx)
	fmt.Printf("Available: %t\n", availability.IsAvailable)
	fmt.Printf("Biometry type: %s\n", availability.BiometryType)
	if !availability.IsAvailable {
		fmt.Printf("Reason: %s (%s)\n", availability.Reason, availability.Code)
	}

	err := client.Authenticate(ctx, biometrytypes.AuthenticateRequest{
		Reason:                *reason,
		FallbackTitle:         mo.None[string](),
		AllowDeviceCredential: *allowPasscode,
	})
	if err != nil {
		panic(err)
	}

	fmt.Println("Authenticated.")
}
