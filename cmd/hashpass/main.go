package main

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/barriofunde/donaciones/internal/auth"
)

// Genera el hash argon2id de una contraseña, pensado para sembrar la
// cuenta del primer administrador directamente en la base.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: hashpass <contraseña>")
		os.Exit(1)
	}

	password := os.Args[1]
	if utf8.RuneCountInString(password) < 8 {
		fmt.Fprintln(os.Stderr, "la contraseña debe tener al menos 8 caracteres")
		os.Exit(1)
	}

	hash, err := auth.Hash(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generando hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
