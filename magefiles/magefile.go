//go:build mage

package main

import (
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

var examples = []string{"examples/sprites.go", "examples/compute.go"}

// Build compiles every package.
func Build() error {
	return executeCmd("go", withArgs("build", "./..."))
}

// Vet runs go vet over every package.
func Vet() error {
	return executeCmd("go", withArgs("vet", "./..."))
}

// Test runs the package tests with the race detector.
func Test() error {
	mg.Deps(Vet)
	return executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withEnv("CGO_ENABLED=1"))
}

// Examples builds the example programs into bin/.
func Examples() error {
	mg.Deps(Build)
	for _, src := range examples {
		out := filepath.Join("bin", strings.TrimSuffix(filepath.Base(src), ".go"))
		if err := executeCmd("go", withArgs("build", "-o", out, src)); err != nil {
			return err
		}
	}
	return nil
}

// Headless renders a few hundred frames of the sprite example on the software device.
func Headless() error {
	return executeCmd("go", withArgs("run", "examples/sprites.go", "-headless", "-frames", "300", "-config", "examples/sprites.toml"))
}
