package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/usecase"
	"github.com/m2rads/lime/pkg/utils/safe"
)

const maxRunnerRequestSize = 64 << 10

func createRunnerHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := safe.ReadAll(r.Body, maxRunnerRequestSize)
		if err != nil {
			writeJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		var req model.RunnerRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeUseCaseError(w, r, goerr.Wrap(model.ErrInvalidRunnerRequest, "body is not a runner request"))
			return
		}

		runner, err := uc.Runner.CreateRunner(r.Context(), currentUser(r), req)
		if err != nil {
			writeUseCaseError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusAccepted, runner)
	}
}

func runnerOptionsHandler(uc *usecase.UseCases) http.HandlerFunc {
	type response struct {
		CPUSizes []int `json:"cpu_sizes"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, response{CPUSizes: uc.Runner.CPUSizes()})
	}
}
