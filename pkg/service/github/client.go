package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gh "github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://api.github.com"
	reposPerPage   = 100
)

// Client talks to GitHub as the App (JWT), as one of its installations
// (installation token), or on behalf of a signed-in user (OAuth token).
type Client struct {
	baseURL    string
	graphqlURL string
	transport  http.RoundTripper

	apps    *ghinstallation.AppsTransport
	appsAPI *gh.Client

	mu            sync.Mutex
	installations map[model.InstallationID]*gh.Client
}

var _ Service = &Client{}

type Option func(*Client)

// WithBaseURL points REST calls at a GitHub Enterprise server or a test server
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithGraphQLURL overrides the GraphQL endpoint used for viewer lookups
func WithGraphQLURL(graphqlURL string) Option {
	return func(c *Client) {
		c.graphqlURL = graphqlURL
	}
}

func WithTransport(tr http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = tr
	}
}

// New creates a GitHub client using GitHub App authentication.
// privateKey can be a PEM string, a base64 encoded PEM or a file path.
func New(appID int64, privateKey string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:       defaultBaseURL,
		transport:     http.DefaultTransport,
		installations: make(map[model.InstallationID]*gh.Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.graphqlURL == "" {
		c.graphqlURL = c.baseURL + "/graphql"
	}

	key, err := NormalizePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	apps, err := ghinstallation.NewAppsTransport(c.transport, appID, key)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidPrivateKey, "failed to create GitHub App transport",
			goerr.V("app_id", appID), goerr.V("cause", err.Error()))
	}
	apps.BaseURL = c.baseURL
	c.apps = apps

	appsAPI, err := c.restClient(&http.Client{Transport: apps})
	if err != nil {
		return nil, err
	}
	c.appsAPI = appsAPI

	return c, nil
}

func (c *Client) restClient(httpClient *http.Client) (*gh.Client, error) {
	client := gh.NewClient(httpClient)
	if c.baseURL == defaultBaseURL {
		return client, nil
	}

	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return nil, goerr.Wrap(err, "invalid GitHub API URL", goerr.V("base_url", c.baseURL))
	}
	client.BaseURL = base
	client.UploadURL = base
	return client, nil
}

// installationClient returns a REST client that authenticates as the
// installation. Clients are cached so installation tokens are reused until
// ghinstallation refreshes them.
func (c *Client) installationClient(id model.InstallationID) (*gh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.installations[id]; ok {
		return client, nil
	}

	tr := ghinstallation.NewFromAppsTransport(c.apps, int64(id))
	client, err := c.restClient(&http.Client{Transport: tr})
	if err != nil {
		return nil, err
	}
	c.installations[id] = client
	return client, nil
}

func (c *Client) GetInstallation(ctx context.Context, id model.InstallationID) (*model.Installation, error) {
	inst, resp, err := c.appsAPI.Apps.GetInstallation(ctx, int64(id))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, goerr.Wrap(ErrInstallationNotFound, "GitHub returned 404", goerr.V(model.InstallationIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get installation", goerr.V(model.InstallationIDKey, id))
	}

	result := &model.Installation{
		ID:      model.InstallationID(inst.GetID()),
		AppSlug: inst.GetAppSlug(),
	}
	if inst.Account != nil && inst.Account.GetID() != 0 {
		result.Account = &model.InstallationAccount{
			ID:        model.OrgID(inst.Account.GetID()),
			Login:     inst.Account.GetLogin(),
			AvatarURL: inst.Account.GetAvatarURL(),
			Type:      inst.Account.GetType(),
		}
	}
	return result, nil
}

func (c *Client) ListRepositories(ctx context.Context, id model.InstallationID) ([]*model.Repository, error) {
	client, err := c.installationClient(id)
	if err != nil {
		return nil, err
	}

	var result []*model.Repository
	opts := &gh.ListOptions{PerPage: reposPerPage}
	for {
		list, resp, err := client.Apps.ListRepos(ctx, opts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list installation repositories",
				goerr.V(model.InstallationIDKey, id), goerr.V("page", opts.Page))
		}

		for _, repo := range list.Repositories {
			result = append(result, convertRepository(repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return result, nil
}

func convertRepository(repo *gh.Repository) *model.Repository {
	r := &model.Repository{
		ID:            repo.GetID(),
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		Private:       repo.GetPrivate(),
		HTMLURL:       repo.GetHTMLURL(),
		DefaultBranch: repo.GetDefaultBranch(),
		Language:      repo.GetLanguage(),
	}
	if repo.UpdatedAt != nil {
		r.UpdatedAt = repo.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return r
}

// unauthorizedTransport turns a 401 response into ErrUnauthorized so that
// callers can tell a revoked token from any other failure
type unauthorizedTransport struct {
	base http.RoundTripper
}

func (t *unauthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		return nil, ErrUnauthorized
	}
	return resp, nil
}

type viewerQuery struct {
	Viewer struct {
		DatabaseID githubv4.Int    `graphql:"databaseId"`
		Login      githubv4.String `graphql:"login"`
		Name       githubv4.String `graphql:"name"`
		Email      githubv4.String `graphql:"email"`
		AvatarURL  githubv4.String `graphql:"avatarUrl"`
	}
}

func (c *Client) GetViewer(ctx context.Context, accessToken string) (*model.GitHubUser, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: src,
			Base:   &unauthorizedTransport{base: c.transport},
		},
	}
	gql := githubv4.NewEnterpriseClient(c.graphqlURL, httpClient)

	var q viewerQuery
	if err := gql.Query(ctx, &q, nil); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, goerr.Wrap(ErrUnauthorized, "access token rejected")
		}
		return nil, goerr.Wrap(err, "failed to query viewer")
	}

	return &model.GitHubUser{
		ID:        int64(q.Viewer.DatabaseID),
		Login:     string(q.Viewer.Login),
		Name:      string(q.Viewer.Name),
		Email:     string(q.Viewer.Email),
		AvatarURL: string(q.Viewer.AvatarURL),
	}, nil
}
