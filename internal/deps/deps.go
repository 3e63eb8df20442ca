package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external binary the daemon may shell out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports whether a requirement resolved on PATH.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves each requirement with exec.LookPath.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// OpenerCommand returns the file manager launcher for goos.
func OpenerCommand(goos string) string {
	switch goos {
	case "windows":
		return "explorer"
	case "darwin":
		return "open"
	default:
		return "xdg-open"
	}
}

// DesktopRequirements lists the binaries used by the open-folder endpoints.
// Missing ones degrade to returning the path, so all are optional.
func DesktopRequirements(goos string) []Requirement {
	return []Requirement{{
		Name:        "Folder opener",
		Command:     OpenerCommand(goos),
		Description: "Reveals project folders in the desktop file manager",
		Optional:    true,
	}}
}
