package safeio

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a path would resolve outside its base directory.
var ErrPathTraversal = errors.New("path traversal detected")

// CleanRelPath normalises an archive- or user-supplied relative path to
// forward slashes and rejects anything absolute or escaping its root.
// Names such as "a..b" are fine; only ".." segments are rejected.
func CleanRelPath(p string) (string, error) {
	slashed := strings.ReplaceAll(p, `\`, "/")
	if slashed == "" {
		return "", fmt.Errorf("empty path")
	}
	if path.IsAbs(slashed) || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return "", fmt.Errorf("%w: absolute path %q", ErrPathTraversal, p)
	}
	c := path.Clean(slashed)
	if c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("%w: %q escapes root", ErrPathTraversal, p)
	}
	return c, nil
}

// ContainedPath joins rel onto baseDir after validating rel with CleanRelPath.
func ContainedPath(baseDir, rel string) (string, error) {
	clean, err := CleanRelPath(rel)
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, filepath.FromSlash(clean)), nil
}

// IsWithin reports whether target is baseDir or lies below it.
func IsWithin(baseDir, target string) (bool, error) {
	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return false, err
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
// This prevents path traversal attacks by ensuring the file path resolves
// to a location within the specified base directory.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	ok, err := IsWithin(baseDir, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is outside %s", ErrPathTraversal, filePath, baseDir)
	}
	// #nosec G304 -- containment verified above
	return os.ReadFile(filePath)
}
