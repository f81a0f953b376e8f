package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mercalog/go-backend/internal/auth"
)

// Утилита для генерации bcrypt-хэша кода доступа (значение ACCESS_CODE_HASH).
func main() {
	cost := flag.Int("cost", auth.HashCost, "bcrypt cost")
	flag.Parse()

	code := flag.Arg(0)
	if code == "" {
		fmt.Fprintln(os.Stderr, "usage: accesshash [-cost N] <access-code>")
		os.Exit(2)
	}

	hash, err := auth.GenerateHash(code, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash access code: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
