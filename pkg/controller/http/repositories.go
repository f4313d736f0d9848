package http

import (
	"errors"
	"net/http"

	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/usecase"
	"github.com/m2rads/lime/pkg/utils/errutil"
)

type repositoryResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Language      string `json:"language"`
	UpdatedAt     string `json:"updated_at"`
}

func toRepositoryResponse(r *model.Repository) repositoryResponse {
	return repositoryResponse{
		ID:            r.ID,
		Name:          r.Name,
		FullName:      r.FullName,
		Description:   r.Description,
		Private:       r.Private,
		HTMLURL:       r.HTMLURL,
		DefaultBranch: r.DefaultBranch,
		Language:      r.Language,
		UpdatedAt:     r.UpdatedAt,
	}
}

// writeUseCaseError maps errors shared by the organization-scoped endpoints
func writeUseCaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrNoActiveOrganization):
		writeJSON(r.Context(), w, http.StatusConflict, errorResponse{Error: "no active organization"})
	case errors.Is(err, model.ErrInvalidRunnerRequest):
		writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "invalid runner request"})
	case errors.Is(err, usecase.ErrGitHubNotConfigured):
		errutil.HandleHTTP(r.Context(), w, err, http.StatusServiceUnavailable)
	default:
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
	}
}

func listRepositoriesHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		Repositories []repositoryResponse `json:"repositories"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		repos, err := uc.Repository.ListRepositories(r.Context(), currentUser(r), r.URL.Query().Get("q"))
		if err != nil {
			writeUseCaseError(w, r, err)
			return
		}

		resp := response{Repositories: make([]repositoryResponse, len(repos))}
		for i, repo := range repos {
			resp.Repositories[i] = toRepositoryResponse(repo)
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}
