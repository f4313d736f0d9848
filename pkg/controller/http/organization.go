package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m2rads/lime/pkg/domain/interfaces"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/domain/model/auth"
	"github.com/m2rads/lime/pkg/usecase"
	"github.com/m2rads/lime/pkg/utils/errutil"
)

type organizationResponse struct {
	ID             string    `json:"id"`
	OrgID          int64     `json:"org_id"`
	Name           string    `json:"name"`
	AvatarURL      string    `json:"avatar_url"`
	InstallationID int64     `json:"installation_id"`
	IsActive       bool      `json:"is_active"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toOrganizationResponse(c *model.Connection) *organizationResponse {
	if c == nil {
		return nil
	}
	return &organizationResponse{
		ID:             c.ID.String(),
		OrgID:          int64(c.OrgID),
		Name:           c.OrgName,
		AvatarURL:      c.OrgAvatarURL,
		InstallationID: int64(c.InstallationID),
		IsActive:       c.IsActive,
		UpdatedAt:      c.UpdatedAt,
	}
}

func currentUser(r *http.Request) model.UserID {
	return model.UserID(auth.TokenFromContext(r.Context()).Sub)
}

func listOrganizationsHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		Organizations []*organizationResponse `json:"organizations"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conns, err := uc.Connection.ListOrganizations(r.Context(), currentUser(r))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}

		resp := response{Organizations: make([]*organizationResponse, len(conns))}
		for i, c := range conns {
			resp.Organizations[i] = toOrganizationResponse(c)
		}
		writeJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func activeOrganizationHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		Organization *organizationResponse `json:"organization"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := uc.Connection.GetActiveOrganization(r.Context(), currentUser(r))
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, response{Organization: toOrganizationResponse(conn)})
	}
}

func activateOrganizationHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		Organization *organizationResponse `json:"organization"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := model.ConnectionID(chi.URLParam(r, "id"))

		conn, err := uc.Connection.ActivateOrganization(r.Context(), currentUser(r), id)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Error: "organization not found"})
				return
			}
			errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, response{Organization: toOrganizationResponse(conn)})
	}
}
