package model

// InstallationAccount is the GitHub account an App installation belongs to
type InstallationAccount struct {
	ID        OrgID
	Login     string
	AvatarURL string
	Type      string // "Organization" or "User"
}

// Installation is the subset of GET /app/installations/{id} used to connect
// an organization. Account is nil when GitHub returned none.
type Installation struct {
	ID      InstallationID
	AppSlug string
	Account *InstallationAccount
}

// ConnectionInput builds the reconciliation input for user from the installation
func (x *Installation) ConnectionInput(user UserID) ConnectionInput {
	input := ConnectionInput{
		UserID:         user,
		InstallationID: x.ID,
	}
	if x.Account != nil {
		input.OrgID = x.Account.ID
		input.OrgName = x.Account.Login
		input.OrgAvatarURL = x.Account.AvatarURL
	}
	return input
}

// Repository is a repository the active installation can access
type Repository struct {
	ID            int64
	Name          string
	FullName      string
	Description   string
	Private       bool
	HTMLURL       string
	DefaultBranch string
	Language      string
	UpdatedAt     string
}

// GitHubUser is the signed-in user as reported by the GitHub GraphQL viewer query
type GitHubUser struct {
	ID        int64
	Login     string
	Name      string
	Email     string
	AvatarURL string
}
