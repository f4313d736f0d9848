package types

// GitHubEvent is the value of the X-GitHub-Event header
type GitHubEvent string

const (
	GitHubEventInstallation GitHubEvent = "installation"
	GitHubEventPush         GitHubEvent = "push"
	GitHubEventPing         GitHubEvent = "ping"
)

func (x GitHubEvent) String() string {
	return string(x)
}

// InstallationAction is the action field of an installation event
type InstallationAction string

const (
	InstallationActionCreated   InstallationAction = "created"
	InstallationActionDeleted   InstallationAction = "deleted"
	InstallationActionSuspend   InstallationAction = "suspend"
	InstallationActionUnsuspend InstallationAction = "unsuspend"
	InstallationActionNewPerms  InstallationAction = "new_permissions_accepted"
)

func (x InstallationAction) String() string {
	return string(x)
}

// RequiresInstallationID reports whether handling the action mutates
// connections and therefore needs the installation ID
func (x InstallationAction) RequiresInstallationID() bool {
	switch x {
	case InstallationActionDeleted, InstallationActionSuspend:
		return true
	default:
		return false
	}
}
