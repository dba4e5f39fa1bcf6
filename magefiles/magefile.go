//go:build mage

// Package main provides build targets for redefine using Mage.
//
// Usage:
//
//	mage build        Compile the redefine binary to bin/ (pure Go SQLite)
//	mage buildCgo     Compile with the cgo SQLite driver
//	mage test         Run all tests
//	mage testCgo      Run all tests against the cgo driver
//	mage lint         Run golangci-lint
//	mage clean        Remove build artifacts
//	mage install      Install redefine to GOPATH/bin
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "redefine"
	binaryDir  = "bin"
	cmdDir     = "./cmd/redefine"
	cgoTags    = "sqlite_vec"
)

// ldflags stamps the version and build time into the binary
func ldflags() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("-X main.version=%s -X main.buildTime=%s", version, time.Now().UTC().Format(time.RFC3339))
}

// Build compiles the redefine binary to bin/ without cgo.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	env := map[string]string{"CGO_ENABLED": "0"}
	return sh.RunWithV(env, "go", "build", "-tags", "purego", "-ldflags", ldflags(),
		"-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// BuildCgo compiles the redefine binary against mattn/go-sqlite3.
func BuildCgo() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	env := map[string]string{"CGO_ENABLED": "1"}
	return sh.RunWithV(env, "go", "build", "-tags", cgoTags, "-ldflags", ldflags(),
		"-o", filepath.Join(binaryDir, binaryName+"-cgo"), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// TestCgo runs all tests with the cgo driver.
func TestCgo() error {
	env := map[string]string{"CGO_ENABLED": "1"}
	return sh.RunWithV(env, "go", "test", "-tags", cgoTags, "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll(binaryDir)
}

// Install builds and installs redefine to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	return sh.RunV("go", "install", "-tags", "purego", "-ldflags", ldflags(), cmdDir)
}
