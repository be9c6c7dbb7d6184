//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Default = Build

const binary = "xamr"

// Build builds the xamr binary
func Build() error {
	mg.Deps(Vet)
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/xamr")
}

// Install installs xamr into GOPATH/bin
func Install() error {
	return sh.RunV("go", "install", "./cmd/xamr")
}

// Test runs all unit tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Integration runs the tests that call the model APIs
func Integration() error {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("OPENAI_API_KEY must be set for integration tests")
	}
	return sh.RunV("go", "test", "-run", "Integration", "-v", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes the binary
func Clean() error {
	return sh.Rm(binary)
}
