//go:build ignore

// generate_hash prints an Argon2id hash for OWNER_PASSWORD_HASH.
//
//	go run scripts/generate_hash.go <password>
package main

import (
	"fmt"
	"os"

	"github.com/pointsmaxxer/pointsmaxxer/internal/features/owner"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/generate_hash.go <password>")
		os.Exit(1)
	}

	hash, err := owner.Hash(os.Args[1], owner.DefaultHashParams)
	if err != nil {
		fmt.Printf("Hashing failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Put this in .env as OWNER_PASSWORD_HASH (quote it, it contains $):")
	fmt.Println(hash)
}
