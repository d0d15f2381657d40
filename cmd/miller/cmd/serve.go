package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/miller/internal/tools"
)

// Transport is what a concrete wire protocol (JSON-RPC over stdio, HTTP,
// whatever) implements to drive the tool surface. It is intentionally the
// only point of contact between this package and a transport: serve's job
// ends at handing Dispatch to one of these and waiting for it to return.
type Transport interface {
	Serve(ctx context.Context, dispatch func(ctx context.Context, toolName string, params any) (any, error)) error
}

// newTransport is a package variable so a real binary (or a test) can inject
// a concrete transport without this package needing to depend on one. The
// wire protocol itself is out of scope here; left unset, serve reports that
// clearly instead of silently doing nothing.
var newTransport func() Transport

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tool surface for a connected transport",
		Long: `Builds the shared Context (registry, embedding manager, concurrency
primitives, loaded workspaces) and hands its Dispatch function off to the
configured transport. The transport itself (JSON-RPC framing, progress
streaming) is injected separately; this command only wires the domain
together and waits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runServe(ctx, path)
		},
	}
	return cmd
}

func runServe(ctx context.Context, path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}
	cfg := loadConfig(root)

	c, _, cleanup, err := workspaceContext(ctx, root, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if newTransport == nil {
		return fmt.Errorf("no transport configured: serve needs a Transport injected via cmd.newTransport")
	}

	return newTransport().Serve(ctx, func(ctx context.Context, toolName string, params any) (any, error) {
		return tools.Dispatch(ctx, c, toolName, params)
	})
}
