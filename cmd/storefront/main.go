// Package main provides the storefront binary: a CLI over the cart and session
// stores plus the HTTP view layer served by "storefront serve".
package main

import (
	"fmt"
	"os"
)

const appName = "storefront"

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
