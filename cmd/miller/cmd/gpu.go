package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/miller/internal/tools"
)

func newGPUCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gpu",
		Short: "Inspect or control the shared embedding device",
	}
	cmd.AddCommand(newGPUActionCmd("status", tools.GPUStatus, "Show the embedding device's current load state"))
	cmd.AddCommand(newGPUActionCmd("unload", tools.GPUUnload, "Unload the embedding model to free device memory"))
	cmd.AddCommand(newGPUActionCmd("reload", tools.GPUReload, "Reload the embedding model onto the device"))
	return cmd
}

func newGPUActionCmd(use string, action tools.GPUAction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [path]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runGPU(cmd.Context(), cmd, path, action)
		},
	}
}

func runGPU(ctx context.Context, cmd *cobra.Command, path string, action tools.GPUAction) error {
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

	out, err := tools.Dispatch(ctx, c, tools.ToolGPUMemory, tools.GPUMemoryParams{Action: action})
	if err != nil {
		return err
	}
	result := out.(*tools.GPUMemoryResult)
	fmt.Fprintf(cmd.OutOrStdout(), "device=%s loaded=%t available=%t provider=%s model=%s\n",
		result.Device, result.Loaded, result.Available, result.Provider, result.Model)
	return nil
}
