package main

import (
	"context"
	"fmt"
	"os"

	"lazycare/internal/cli"
)

func main() {
	if err := cli.Run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "lazycare:", err)
		os.Exit(1)
	}
}
