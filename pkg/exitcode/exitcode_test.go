/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package exitcode

import (
	"testing"
)

func TestExitCodeConstants(t *testing.T) {
	if Success != 0 {
		t.Errorf("Success = %v, expected 0", Success)
	}
	if GeneralError != 1 {
		t.Errorf("GeneralError = %v, expected 1", GeneralError)
	}
	if ConfigError != 2 {
		t.Errorf("ConfigError = %v, expected 2", ConfigError)
	}
	if ToolNotFound != 9 {
		t.Errorf("ToolNotFound = %v, expected 9", ToolNotFound)
	}
}

func TestStageCodesAreDistinct(t *testing.T) {
	codes := []int{DirtyTree, WorkspaceBuild, HookRun, ReportFailure, Preflight}
	seen := make(map[int]bool)
	for _, c := range codes {
		if c == Success {
			t.Errorf("stage code %d must be non-zero", c)
		}
		if seen[c] {
			t.Errorf("stage code %d used twice", c)
		}
		seen[c] = true
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{ConfigError, "Configuration error"},
		{ValidationError, "Validation error"},
		{FileSystemError, "File system error"},
		{ToolNotFound, "Tool not found"},
		{DirtyTree, "Working tree not clean"},
		{WorkspaceBuild, "Workspace build failed"},
		{HookRun, "Hook run failed"},
		{ReportFailure, "Report failed"},
		{Preflight, "Preflight check failed"},
		{999, "Unknown error"},
		{-1, "Unknown error"},
	}

	for _, test := range tests {
		if result := String(test.code); result != test.expected {
			t.Errorf("String(%d) = %q, expected %q", test.code, result, test.expected)
		}
	}
}
