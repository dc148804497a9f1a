// SPDX-License-Identifier: MPL-2.0

package backend

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "apt", want: Apt},
		{in: " Paru ", want: Paru},
		{in: "NIXOS", want: NixOS},
		{in: "portage", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseKind(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKind) {
					t.Errorf("ParseKind(%q) error = %v, want ErrInvalidKind", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseKind(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestCapabilityTable(t *testing.T) {
	t.Parallel()

	for _, k := range All() {
		caps := k.Capabilities()
		if caps.Binary == "" {
			t.Errorf("%s has no binary", k)
		}
		if caps.SupportsAUR != (k == Paru || k == Yay) {
			t.Errorf("%s SupportsAUR = %v", k, caps.SupportsAUR)
		}
		if caps.DualMode != (k == NixOS) {
			t.Errorf("%s DualMode = %v", k, caps.DualMode)
		}
	}
}

func TestCommands(t *testing.T) {
	t.Parallel()

	for _, k := range All() {
		_, checkErr := CheckCommand(k)
		_, updErr := UpdateCommand(k)
		if k == NixOS {
			if checkErr == nil || updErr == nil {
				t.Errorf("nixos commands must come from the mode resolver")
			}
			continue
		}
		if checkErr != nil || updErr != nil {
			t.Errorf("%s: CheckCommand err = %v, UpdateCommand err = %v", k, checkErr, updErr)
		}
	}

	if c, _ := CheckCommand(Dnf); c.String() != "dnf check-update -q" {
		t.Errorf("dnf check command = %q", c.String())
	}
	if c, ok := AURCheckCommand(Yay); !ok || c.String() != "yay -Qu --aur" {
		t.Errorf("yay AUR command = %q, %v", c.String(), ok)
	}
	if _, ok := AURCheckCommand(Pacman); ok {
		t.Error("pacman has no AUR command")
	}
	if u, _ := UpdateCommand(Paru); u != "paru -Syu" {
		t.Errorf("paru update command = %q", u)
	}
}
