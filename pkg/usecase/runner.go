package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/model"
	"github.com/m2rads/lime/pkg/domain/model/config"
	"github.com/m2rads/lime/pkg/utils/logging"
)

// RunnerUseCase accepts runner requests. Provisioning is not implemented, so
// accepted runners are only logged and returned as pending.
type RunnerUseCase struct {
	connection *ConnectionUseCase
	config     config.RunnerConfig
}

func NewRunnerUseCase(connection *ConnectionUseCase, cfg config.RunnerConfig) *RunnerUseCase {
	if len(cfg.CPUSizes) == 0 {
		cfg.CPUSizes = append([]int(nil), config.DefaultCPUSizes...)
	}
	if cfg.DefaultCPU == 0 {
		cfg.DefaultCPU = cfg.CPUSizes[0]
	}
	return &RunnerUseCase{
		connection: connection,
		config:     cfg,
	}
}

// CPUSizes returns the sizes offered in the create form
func (uc *RunnerUseCase) CPUSizes() []int {
	return append([]int(nil), uc.config.CPUSizes...)
}

// CreateRunner validates req and accepts it for the user's active organization
func (uc *RunnerUseCase) CreateRunner(ctx context.Context, user model.UserID, req model.RunnerRequest) (*model.Runner, error) {
	req.Normalize(uc.config.DefaultCPU)
	if err := req.Validate(uc.config.CPUSizes); err != nil {
		return nil, err
	}

	active, err := uc.connection.GetActiveOrganization(ctx, user)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, goerr.Wrap(ErrNoActiveOrganization, "cannot create runner", goerr.V(model.UserIDKey, user))
	}

	runner := model.NewRunner(req, active.OrgID, user, time.Now().UTC())
	logging.From(ctx).Info("runner requested",
		"runner_id", runner.ID,
		"name", runner.Name,
		"repository", runner.Repository,
		"cpu", runner.CPU,
		"org", active.OrgName,
	)
	return runner, nil
}
