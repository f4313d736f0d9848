package http

import (
	"net/http"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/domain/model/auth"
	"github.com/m2rads/lime/pkg/usecase"
	"github.com/m2rads/lime/pkg/utils/errutil"
)

// githubSetupHandler completes the App installation flow for the signed-in
// user and redirects to the dashboard with the outcome
func githubSetupHandler(uc *usecase.UseCases, site siteResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := model.UserID(auth.TokenFromContext(ctx).Sub)

		result, err := uc.Connection.CompleteSetup(ctx, user, r.URL.Query().Get("installation_id"))
		if err != nil {
			_ = errutil.Handle(ctx, goerr.Wrap(err, "installation setup failed",
				goerr.V("result", result)), "failed to complete GitHub App setup")
		}

		q := url.Values{}
		q.Set(result.QueryKey(), result.String())
		http.Redirect(w, r, site.join(r, "/dashboard")+"?"+q.Encode(), http.StatusFound)
	}
}

// githubInstallHandler sends the user to the App installation page
func githubInstallHandler(appName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if appName == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(usecase.ErrGitHubNotConfigured, "app name is not set"),
				http.StatusServiceUnavailable)
			return
		}
		target := "https://github.com/apps/" + url.PathEscape(appName) + "/installations/new"
		http.Redirect(w, r, target, http.StatusFound)
	}
}
