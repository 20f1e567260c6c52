// Package main provides the chessleaks CLI tool for finding repeated
// opening mistakes and missed tactics in a player's online games.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
