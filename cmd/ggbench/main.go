// Command ggbench renders a batch of demo frames on the CPU and GPU
// backends and reports how long each backend took.
//
// Usage:
//
//	ggbench run [flags]
//	ggbench devices [--driver name]
//	ggbench version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	_ "github.com/gogpu/ggbench/driver/soft"
	_ "github.com/gogpu/ggbench/driver/wgpu"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
