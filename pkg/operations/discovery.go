package operations

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrUnknownOperation is returned when no payload matches the name.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrNotExecutable is returned when the payload lacks an execute bit.
	ErrNotExecutable = errors.New("operation is not executable")
	// ErrInvalidName is returned for names that could escape the directory.
	ErrInvalidName = errors.New("invalid operation name")
)

// Pre-compiled regex patterns for parsing script headers
var (
	headerRe    = regexp.MustCompile(`^#\s*([\w.-]+)\s+[Oo]peration`)
	descRe      = regexp.MustCompile(`^#\s+([A-Z].+)$`)
	separatorRe = regexp.MustCompile(`^#[=\-]*$|^#\s*$`)
	validNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)
)

// Discover scans dir for operation scripts and returns a registry.
func Discover(dir string) (*Registry, error) {
	registry := NewRegistry()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("operations directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("operations path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read operations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "_") || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		op, err := ParseScript(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		registry.Add(*op)
	}

	return registry, nil
}

// Resolve finds the operation called name in dir. The name may be given with
// or without the .sh suffix. The payload must exist and be executable.
func Resolve(dir, name string) (*Operation, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	candidates := []string{name}
	if !strings.HasSuffix(name, ".sh") {
		candidates = append(candidates, name+".sh")
	}

	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		op, err := ParseScript(path)
		if err != nil {
			return nil, err
		}
		if !op.Executable {
			return nil, fmt.Errorf("%s: %w", path, ErrNotExecutable)
		}
		return op, nil
	}

	return nil, fmt.Errorf("%q in %s: %w", name, dir, ErrUnknownOperation)
}

// ValidateName rejects empty names and names containing path separators.
func ValidateName(name string) error {
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if !validNameRe.MatchString(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}

// ParseScript reads the header of an operation script.
//
// Header format:
//
//	#!/bin/bash
//	#=====================
//	# update Operation
//	#
//	# Upgrade all packages with the distribution package manager
//	#=====================
func ParseScript(path string) (*Operation, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat script: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer file.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	op := &Operation{
		Name:       strings.TrimSuffix(filepath.Base(path), ".sh"),
		Path:       abs,
		Executable: info.Mode().Perm()&0111 != 0,
	}

	scanner := bufio.NewScanner(file)
	lineNum := 0
	lookingForDesc := false

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if headerRe.MatchString(line) {
			lookingForDesc = true
			continue
		}

		if lookingForDesc {
			if separatorRe.MatchString(line) {
				continue
			}
			if matches := descRe.FindStringSubmatch(line); len(matches) > 1 {
				op.Description = strings.TrimSpace(matches[1])
			}
			lookingForDesc = false
		}

		// The header lives in the first lines
		if lineNum > 30 {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading script: %w", err)
	}

	return op, nil
}
