package config

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, dsn string, autoMigrate bool) *Repository {
	return &Repository{
		backend:     backend,
		dsn:         dsn,
		autoMigrate: autoMigrate,
	}
}

// NewGitHubForTest creates a GitHub config for testing purposes
func NewGitHubForTest(appID int64, privateKey string) *GitHub {
	return &GitHub{
		appID:      appID,
		privateKey: privateKey,
	}
}

// NewGitHubBase64ForTest creates a GitHub config with a base64 encoded key
func NewGitHubBase64ForTest(appID int64, privateKeyBase64 string) *GitHub {
	return &GitHub{
		appID:            appID,
		privateKeyBase64: privateKeyBase64,
	}
}

// PrivateKeyPEM exposes the resolved App key
func (g *GitHub) PrivateKeyPEM() (string, error) {
	return g.privateKeyPEM()
}

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(clientID, clientSecret, noAuthUser string) *Auth {
	return &Auth{
		clientID:     clientID,
		clientSecret: clientSecret,
		noAuthUser:   noAuthUser,
	}
}

// NewSiteForTest creates a Site config for testing purposes
func NewSiteForTest(url, deploymentURL string) *Site {
	return &Site{
		url:           url,
		deploymentURL: deploymentURL,
	}
}
