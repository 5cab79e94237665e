//go:build mage

// Package main provides build targets for toodle using Mage.
//
// Usage:
//
//	mage build        Compile the toodle binary to bin/
//	mage test:all     Run every test
//	mage test:race    Run every test with the race detector
//	mage test:debug   Run tests built with the toodledebug tag
//	mage lint         Run golangci-lint
//	mage clean        Remove build artifacts
//	mage install      Install toodle to GOPATH/bin
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "toodle"
	binaryDir  = "bin"
	cmdDir     = "./cmd/toodle"

	// debugTag turns handle misuse into a panic.
	debugTag = "toodledebug"
)

// Build compiles the toodle binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test groups the test targets.
type Test mg.Namespace

// All runs every test.
func (Test) All() error {
	return sh.RunV(binGo, "test", "./...")
}

// Race runs every test with the race detector.
func (Test) Race() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Debug runs the tests that apply to toodledebug builds.
func (Test) Debug() error {
	return sh.RunV(binGo, "test", "-tags", debugTag, "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
