// Package resolver assembles a credential bundle from the caller's partial
// values, the project and user records of the dashboard backend, and a
// locally persisted fallback, in that order.
package resolver

import (
	"context"
	"errors"

	"github.com/Brawl345/supacreds/logger"
	"github.com/Brawl345/supacreds/model"
	"github.com/Brawl345/supacreds/utils/httpUtils"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

type (
	RemoteSource interface {
		FetchProjectCredentials(ctx context.Context, baseURL string, projectID int64, authToken string) (ProjectCredentials, error)
		FetchUserToken(ctx context.Context, baseURL, identity, authToken string) (string, error)
	}

	// FallbackSource is read-only access to persisted values.
	FallbackSource interface {
		GetKey(name string) (string, error)
	}

	Config struct {
		BaseURL      string
		ProjectID    int64
		UserIdentity string
		AuthToken    string
		// Current holds values the caller already has. They are never overwritten.
		Current *model.Bundle
		// FallbackKey names the persisted value used as a last-resort service token.
		FallbackKey string
	}

	Resolver struct {
		remote   RemoteSource
		fallback FallbackSource
		log      *logger.Logger
	}
)

// New returns a Resolver. fallback may be nil.
func New(remote RemoteSource, fallback FallbackSource) *Resolver {
	return &Resolver{
		remote:   remote,
		fallback: fallback,
		log:      logger.New("resolver"),
	}
}

func (r *Resolver) Resolve(ctx context.Context, cfg Config) (model.Bundle, error) {
	bundle, _, err := r.ResolveWithReport(ctx, cfg)
	return bundle, err
}

// ResolveWithReport works like Resolve and also reports what every stage did.
// The only error it returns is *model.MissingCredentialsError.
func (r *Resolver) ResolveWithReport(ctx context.Context, cfg Config) (model.Bundle, Report, error) {
	report := Report{ID: xid.New().String()}
	log := r.log.With().
		Str("resolution", report.ID).
		Int64("project_id", cfg.ProjectID).
		Logger()

	var bundle model.Bundle
	if cfg.Current != nil {
		bundle = *cfg.Current
	}

	// Stages run in order; each one only looks at what is still empty.
	report.Stages = append(report.Stages, r.fillProject(ctx, cfg, &bundle))
	report.Stages = append(report.Stages, r.fillUserToken(ctx, cfg, &bundle))
	report.Stages = append(report.Stages, r.fillFromFallback(cfg, &bundle))

	for _, stage := range report.Stages {
		logStage(&log, stage)
	}

	if missing := bundle.MissingFields(); len(missing) > 0 {
		log.Warn().
			Strs("missing", missing).
			Msg("Credentials could not be resolved")
		return model.Bundle{}, report, &model.MissingCredentialsError{Fields: missing}
	}

	log.Debug().Msg("Credentials resolved")
	return bundle, report, nil
}

func (r *Resolver) fillProject(ctx context.Context, cfg Config, bundle *model.Bundle) StageResult {
	result := StageResult{Stage: StageProject}
	if !bundle.NeedsProject() {
		return result
	}

	project, err := r.remote.FetchProjectCredentials(ctx, cfg.BaseURL, cfg.ProjectID, cfg.AuthToken)
	if err != nil {
		result.Outcome = OutcomeUnavailable
		result.Err = err
		return result
	}

	filled := fillEmpty(&bundle.EndpointURL, project.EndpointURL)
	filled = fillEmpty(&bundle.AnonymousKey, project.AnonymousKey) || filled
	filled = fillEmpty(&bundle.StorageURL, project.StorageURL) || filled
	result.Outcome = filledOrEmpty(filled)
	return result
}

func (r *Resolver) fillUserToken(ctx context.Context, cfg Config, bundle *model.Bundle) StageResult {
	result := StageResult{Stage: StageUser}
	if bundle.ServiceToken != "" {
		return result
	}

	token, err := r.remote.FetchUserToken(ctx, cfg.BaseURL, cfg.UserIdentity, cfg.AuthToken)
	if err != nil {
		result.Outcome = OutcomeUnavailable
		result.Err = err
		return result
	}

	result.Outcome = filledOrEmpty(fillEmpty(&bundle.ServiceToken, token))
	return result
}

func (r *Resolver) fillFromFallback(cfg Config, bundle *model.Bundle) StageResult {
	result := StageResult{Stage: StageFallback}
	if bundle.ServiceToken != "" || cfg.FallbackKey == "" {
		return result
	}

	if r.fallback == nil {
		result.Outcome = OutcomeUnavailable
		result.Err = errors.New("no fallback store configured")
		return result
	}

	token, err := r.fallback.GetKey(cfg.FallbackKey)
	if errors.Is(err, model.ErrNotFound) {
		result.Outcome = OutcomeEmpty
		return result
	}
	if err != nil {
		result.Outcome = OutcomeUnavailable
		result.Err = err
		return result
	}

	result.Outcome = filledOrEmpty(fillEmpty(&bundle.ServiceToken, token))
	return result
}

func fillEmpty(dst *string, value string) bool {
	if *dst != "" || value == "" {
		return false
	}
	*dst = value
	return true
}

func filledOrEmpty(filled bool) Outcome {
	if filled {
		return OutcomeFilled
	}
	return OutcomeEmpty
}

func logStage(log *zerolog.Logger, stage StageResult) {
	if stage.Outcome != OutcomeUnavailable {
		log.Debug().
			Str("stage", stage.Stage).
			Stringer("outcome", stage.Outcome).
			Send()
		return
	}

	event := log.Warn().
		Str("stage", stage.Stage).
		Err(stage.Err)
	if status, ok := httpUtils.StatusCode(stage.Err); ok {
		event = event.Int("status", status)
	}
	event.Msg("Credential source unavailable, continuing")
}
