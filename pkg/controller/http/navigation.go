package http

import (
	"net/http"

	"github.com/m2rads/lime/pkg/usecase"
)

func navigationHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		Items []usecase.NavEntry `json:"items"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, response{Items: uc.Navigation.Items()})
	}
}
