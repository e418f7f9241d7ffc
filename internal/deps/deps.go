package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency photoreport relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// HEICConverter describes the libheif command used to convert HEIC/HEIF
// photos to JPEG. It is optional: without it HEIC files are reported as
// unsupported while every other format keeps working.
func HEICConverter(command string) Requirement {
	return Requirement{
		Name:        "HEIC converter",
		Command:     command,
		Description: "Converts HEIC/HEIF photos to JPEG (libheif heif-convert)",
		Optional:    true,
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Check(req))
	}
	return results
}

// Check evaluates a single requirement.
func Check(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	if _, err := exec.LookPath(cmd); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Available = true
	return status
}
