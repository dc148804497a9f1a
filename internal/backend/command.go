// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"fmt"
	"strings"
)

const (
	// ActionCheck is the polkit action for privileged update checks.
	ActionCheck = "io.github.pkgpulse.check"
	// ActionUpdate is the polkit action for privileged updates.
	ActionUpdate = "io.github.pkgpulse.update"
)

type (
	// Command is the {binary, args} contract handed to the runner.
	Command struct {
		Binary string
		Args   []string
		// Privileged commands go through the privilege chain.
		Privileged bool
		// ActionID is the polkit action consulted for privileged commands.
		ActionID string
		// Prompt is shown by escalation agents that support it.
		Prompt string
	}
)

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// CheckCommand returns the official-repository check command for k.
// Dual-mode backends build their command from a ModeConfig instead.
func CheckCommand(k Kind) (Command, error) {
	switch k {
	case Pacman, Paru, Yay:
		return Command{Binary: "checkupdates"}, nil
	case Apt:
		return Command{Binary: "apt", Args: []string{"list", "--upgradable"}}, nil
	case Dnf:
		return Command{Binary: "dnf", Args: []string{"check-update", "-q"}}, nil
	case Zypper:
		return Command{Binary: "zypper", Args: []string{"--non-interactive", "list-updates"}}, nil
	case Apk:
		return Command{Binary: "apk", Args: []string{"-u", "list"}}, nil
	case Flatpak:
		return Command{Binary: "flatpak", Args: []string{
			"remote-ls", "--updates", "--columns=name,application,version,branch,origin",
		}}, nil
	case NixOS:
		return Command{}, fmt.Errorf("backend %s: check command depends on the configured mode", k)
	default:
		return Command{}, &InvalidKindError{Value: string(k)}
	}
}

// AURCheckCommand returns the AUR check command for AUR helpers.
func AURCheckCommand(k Kind) (Command, bool) {
	if !k.Capabilities().SupportsAUR {
		return Command{}, false
	}
	return Command{Binary: string(k), Args: []string{"-Qu", "--aur"}}, true
}

// UpdateCommand returns the shell command a user runs to apply updates.
// Dual-mode backends build theirs from a ModeConfig.
func UpdateCommand(k Kind) (string, error) {
	switch k {
	case Pacman:
		return "sudo pacman -Syu", nil
	case Paru, Yay:
		return string(k) + " -Syu", nil
	case Apt:
		return "sudo apt update && sudo apt upgrade", nil
	case Dnf:
		return "sudo dnf upgrade", nil
	case Zypper:
		return "sudo zypper update", nil
	case Apk:
		return "sudo apk upgrade", nil
	case Flatpak:
		return "flatpak update", nil
	case NixOS:
		return "", fmt.Errorf("backend %s: update command depends on the configured mode", k)
	default:
		return "", &InvalidKindError{Value: string(k)}
	}
}
