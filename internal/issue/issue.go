// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/pkgpulse/pkgpulse/internal/update"
)

type Id int

const (
	AlreadyRunningId Id = iota + 1
	BackendUnavailableId
	CheckToolMissingId
	AuthorizationRequiredId
	AuthorizationDeniedId
	FlakeLockMissingId
	UnparseableOutputId
	CommandFailedId
	ConfigInvalidId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // upstream documentation that helps with the fix
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			sb.WriteString("- <")
			sb.WriteString(string(link))
			sb.WriteString(">\n")
		}
	}
	return render(sb.String(), stylePath)
}

var (
	render = glamour.Render

	alreadyRunningIssue = &Issue{
		id: AlreadyRunningId,
		mdMsg: `
# Another check or update is already running

pkgpulse holds a lock while it checks for or applies updates so that two
instances never run the package manager at the same time.

## Things you can try
- Wait a few seconds and retry; checks usually finish quickly.
- See who holds the lock:
~~~
$ pkgpulse status
~~~
- If an update terminal is still open, finish or close it first.`,
	}

	backendUnavailableIssue = &Issue{
		id: BackendUnavailableId,
		mdMsg: `
# No supported package manager found

pkgpulse looks for pacman (with paru or yay), apt, dnf, zypper, apk, NixOS
and flatpak in trusted system directories.

## Things you can try
- List what was probed and why each backend was rejected:
~~~
$ pkgpulse backends
~~~
- Pin a backend in your configuration if detection picks the wrong one:
~~~cue
backend: "pacman"
~~~`,
	}

	checkToolMissingIssue = &Issue{
		id: CheckToolMissingId,
		mdMsg: `
# The update check tool is missing

On Arch Linux and its derivatives, checks use ` + "`checkupdates`" + ` from
pacman-contrib so the system package database is never touched.

## Things you can try
~~~
$ sudo pacman -S pacman-contrib
~~~`,
		extLinks: []HttpLink{"https://archlinux.org/packages/extra/x86_64/pacman-contrib/"},
	}

	authorizationRequiredIssue = &Issue{
		id: AuthorizationRequiredId,
		mdMsg: `
# Root privileges are needed, but cannot be requested silently

NixOS channel checks run ` + "`nixos-rebuild dry-activate`" + ` as root.
Background checks never wait on a password prompt, so one of these must work
without interaction.

## Things you can try
- Install polkit and a polkit authentication agent for your desktop.
- Or allow passwordless sudo for the rebuild command only:
~~~
%wheel ALL=(ALL) NOPASSWD: /run/current-system/sw/bin/nixos-rebuild
~~~
- Or switch to a flake configuration, which is checked without privileges.`,
		extLinks: []HttpLink{
			"https://www.freedesktop.org/software/polkit/docs/latest/pkexec.1.html",
			"https://www.sudo.ws/docs/man/sudoers.man/",
		},
	}

	authorizationDeniedIssue = &Issue{
		id: AuthorizationDeniedId,
		mdMsg: `
# Authorization was denied

The authentication dialog was dismissed or the password was rejected.

## Things you can try
- Retry the check and complete the authentication dialog.
- Make sure your user may administer the system (for example, is in the
  ` + "`wheel`" + ` group).`,
	}

	flakeLockMissingIssue = &Issue{
		id: FlakeLockMissingId,
		mdMsg: `
# flake.lock not found

Flake checks compare your pinned inputs against upstream, which needs an
existing lock file.

## Things you can try
~~~
$ cd /etc/nixos
$ nix flake lock
~~~
- If your configuration lives elsewhere, set ` + "`nixos.config_path`" + `.`,
		extLinks: []HttpLink{"https://wiki.nixos.org/wiki/Flakes"},
	}

	unparseableOutputIssue = &Issue{
		id: UnparseableOutputId,
		mdMsg: `
# The package manager's output was not understood

pkgpulse refuses to report "no updates" when it cannot read the output, since
that could hide pending security fixes.

## Things you can try
- Run the check with debug logging to see the raw lines:
~~~
$ pkgpulse --verbose check
~~~
- Make sure no wrapper or alias changes the tool's output format.`,
	}

	commandFailedIssue = &Issue{
		id: CommandFailedId,
		mdMsg: `
# The check command failed

The package manager exited with an error after one retry.

## Things you can try
- Check your network connection and mirror configuration.
- Run the command shown above by hand to see its full output.`,
	}

	configInvalidIssue = &Issue{
		id: ConfigInvalidId,
		mdMsg: `
# Invalid configuration

The configuration file does not match the expected schema.

## Things you can try
- Show where the file is and what pkgpulse loaded:
~~~
$ pkgpulse config path
$ pkgpulse config show
~~~
- Start over from the defaults:
~~~
$ pkgpulse config init --force
~~~`,
	}

	issues = map[Id]*Issue{
		alreadyRunningIssue.Id():        alreadyRunningIssue,
		backendUnavailableIssue.Id():    backendUnavailableIssue,
		checkToolMissingIssue.Id():      checkToolMissingIssue,
		authorizationRequiredIssue.Id(): authorizationRequiredIssue,
		authorizationDeniedIssue.Id():   authorizationDeniedIssue,
		flakeLockMissingIssue.Id():      flakeLockMissingIssue,
		unparseableOutputIssue.Id():     unparseableOutputIssue,
		commandFailedIssue.Id():         commandFailedIssue,
		configInvalidIssue.Id():         configInvalidIssue,
	}

	kindIssues = map[update.Kind]Id{
		update.KindAlreadyLocked:          AlreadyRunningId,
		update.KindBackendUnavailable:     BackendUnavailableId,
		update.KindAuthorizationRequired:  AuthorizationRequiredId,
		update.KindAuthorizationDenied:    AuthorizationDeniedId,
		update.KindPreconditionMissing:    FlakeLockMissingId,
		update.KindUnparseableOutput:      UnparseableOutputId,
		update.KindCommandExecutionFailed: CommandFailedId,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}

// ForError returns the remediation guide for a check failure, or nil when
// err is outside the taxonomy.
func ForError(err error) *Issue {
	kind := update.KindOf(err)
	if kind == update.KindBackendUnavailable && strings.Contains(err.Error(), "pacman-contrib") {
		return checkToolMissingIssue
	}
	id, ok := kindIssues[kind]
	if !ok {
		return nil
	}
	return issues[id]
}
