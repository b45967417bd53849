package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brawl345/supacreds/model"
	"github.com/Brawl345/supacreds/utils/httpUtils"
)

// backend fakes the dashboard API and counts the requests it receives.
type backend struct {
	projectStatus int
	projectBody   string
	userStatus    int
	userBody      string

	projectCalls atomic.Int32
	userCalls    atomic.Int32
}

func (b *backend) start(t *testing.T) (*API, string) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects/{id}", func(w http.ResponseWriter, _ *http.Request) {
		b.projectCalls.Add(1)
		w.WriteHeader(b.projectStatus)
		_, _ = w.Write([]byte(b.projectBody))
	})
	mux.HandleFunc("GET /api/users/external/{identity}", func(w http.ResponseWriter, _ *http.Request) {
		b.userCalls.Add(1)
		w.WriteHeader(b.userStatus)
		_, _ = w.Write([]byte(b.userBody))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewAPI(&httpUtils.HttpOptions{Client: srv.Client()}), srv.URL
}

type mapFallback map[string]string

func (m mapFallback) GetKey(name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", model.ErrNotFound
	}
	return v, nil
}

type brokenFallback struct{}

func (brokenFallback) GetKey(string) (string, error) {
	return "", errors.New("storage unavailable")
}

func TestResolve_CompleteCurrentSkipsNetwork(t *testing.T) {
	t.Parallel()

	b := &backend{projectStatus: http.StatusOK, projectBody: `{}`, userStatus: http.StatusOK, userBody: `{}`}
	api, baseURL := b.start(t)

	current := model.Bundle{
		EndpointURL:  "https://p.example",
		AnonymousKey: "anon",
		ServiceToken: "svc",
		StorageURL:   "postgres://db",
	}

	got, report, err := New(api, nil).ResolveWithReport(context.Background(), Config{
		BaseURL:   baseURL,
		ProjectID: 7,
		Current:   &current,
	})
	require.NoError(t, err)

	if diff := cmp.Diff(current, got); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, b.projectCalls.Load())
	assert.Zero(t, b.userCalls.Load())
	assert.Equal(t, OutcomeSkipped, report.Outcome(StageProject))
	assert.Equal(t, OutcomeSkipped, report.Outcome(StageUser))
	assert.Equal(t, OutcomeSkipped, report.Outcome(StageFallback))
	assert.NotEmpty(t, report.ID)
}

func TestResolve_KeepsCallerValues(t *testing.T) {
	t.Parallel()

	b := &backend{
		projectStatus: http.StatusOK,
		projectBody:   `{"endpointurl":"https://fetched","aneonkey":"anon-fetched","dburl":"postgres://fetched"}`,
		userStatus:    http.StatusOK,
		userBody:      `{"serviceToken":"svc-fetched"}`,
	}
	api, baseURL := b.start(t)

	got, err := New(api, nil).Resolve(context.Background(), Config{
		BaseURL:      baseURL,
		ProjectID:    7,
		UserIdentity: "u1",
		AuthToken:    "t",
		Current:      &model.Bundle{EndpointURL: "https://mine"},
	})
	require.NoError(t, err)

	want := model.Bundle{
		EndpointURL:  "https://mine",
		AnonymousKey: "anon-fetched",
		ServiceToken: "svc-fetched",
		StorageURL:   "postgres://fetched",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_ProjectCompleteOnlyFetchesUser(t *testing.T) {
	t.Parallel()

	b := &backend{userStatus: http.StatusOK, userBody: `{"serviceToken":"svc"}`}
	api, baseURL := b.start(t)

	got, err := New(api, nil).Resolve(context.Background(), Config{
		BaseURL:      baseURL,
		ProjectID:    7,
		UserIdentity: "u1",
		Current: &model.Bundle{
			EndpointURL:  "https://p.example",
			AnonymousKey: "anon",
			StorageURL:   "postgres://db",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "svc", got.ServiceToken)
	assert.Zero(t, b.projectCalls.Load())
	assert.EqualValues(t, 1, b.userCalls.Load())
}

func TestResolve_ProjectFailureContinues(t *testing.T) {
	t.Parallel()

	b := &backend{
		projectStatus: http.StatusNotFound,
		userStatus:    http.StatusOK,
		userBody:      `{"serviceToken":"svc"}`,
	}
	api, baseURL := b.start(t)

	_, report, err := New(api, nil).ResolveWithReport(context.Background(), Config{
		BaseURL:      baseURL,
		ProjectID:    7,
		UserIdentity: "u1",
	})

	assert.EqualValues(t, 1, b.projectCalls.Load())
	assert.EqualValues(t, 1, b.userCalls.Load())
	assert.Equal(t, OutcomeUnavailable, report.Outcome(StageProject))
	assert.Equal(t, OutcomeFilled, report.Outcome(StageUser))

	var missing *model.MissingCredentialsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"endpointUrl", "anonymousKey"}, missing.Fields)

	status, ok := httpUtils.StatusCode(report.Stages[0].Err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestResolve_AllSourcesFail(t *testing.T) {
	t.Parallel()

	b := &backend{projectStatus: http.StatusBadGateway, userStatus: http.StatusBadGateway}
	api, baseURL := b.start(t)

	got, err := New(api, mapFallback{"tok": "svc"}).Resolve(context.Background(), Config{
		BaseURL:      baseURL,
		ProjectID:    7,
		UserIdentity: "u1",
	})
	assert.ErrorIs(t, err, model.ErrMissingCredentials)
	assert.Equal(t, model.Bundle{}, got)
}

func TestResolve_FallbackSuppliesServiceToken(t *testing.T) {
	t.Parallel()

	b := &backend{
		projectStatus: http.StatusOK,
		projectBody:   `{"endpointurl":"https://p.example","aneonkey":"anon123"}`,
		userStatus:    http.StatusInternalServerError,
	}
	api, baseURL := b.start(t)

	got, report, err := New(api, mapFallback{"tok": "svc-abc"}).ResolveWithReport(context.Background(), Config{
		BaseURL:      baseURL,
		ProjectID:    7,
		UserIdentity: "u1",
		AuthToken:    "t",
		Current:      &model.Bundle{},
		FallbackKey:  "tok",
	})
	require.NoError(t, err)

	want := model.Bundle{
		EndpointURL:  "https://p.example",
		AnonymousKey: "anon123",
		ServiceToken: "svc-abc",
		StorageURL:   "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bundle mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, OutcomeFilled, report.Outcome(StageProject))
	assert.Equal(t, OutcomeUnavailable, report.Outcome(StageUser))
	assert.Equal(t, OutcomeFilled, report.Outcome(StageFallback))
}

func TestResolve_FallbackNotConsulted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fallback FallbackSource
		key      string
		outcome  Outcome
	}{
		{name: "no key given", fallback: mapFallback{"tok": "svc-abc"}, key: "", outcome: OutcomeSkipped},
		{name: "key missing from store", fallback: mapFallback{}, key: "tok", outcome: OutcomeEmpty},
		{name: "empty value in store", fallback: mapFallback{"tok": ""}, key: "tok", outcome: OutcomeEmpty},
		{name: "store read fails", fallback: brokenFallback{}, key: "tok", outcome: OutcomeUnavailable},
		{name: "no store", fallback: nil, key: "tok", outcome: OutcomeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := &backend{
				projectStatus: http.StatusOK,
				projectBody:   `{"endpointurl":"https://p.example","aneonkey":"anon123"}`,
				userStatus:    http.StatusInternalServerError,
			}
			api, baseURL := b.start(t)

			_, report, err := New(api, tt.fallback).ResolveWithReport(context.Background(), Config{
				BaseURL:      baseURL,
				ProjectID:    7,
				UserIdentity: "u1",
				AuthToken:    "t",
				FallbackKey:  tt.key,
			})

			var missing *model.MissingCredentialsError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, []string{"serviceToken"}, missing.Fields)
			assert.Equal(t, tt.outcome, report.Outcome(StageFallback))
		})
	}
}

func TestResolve_UserTokenWinsOverFallback(t *testing.T) {
	t.Parallel()

	b := &backend{
		projectStatus: http.StatusOK,
		projectBody:   `{"endpointUrl":"https://p.example","anonymousKey":"anon"}`,
		userStatus:    http.StatusOK,
		userBody:      `{"serviceToken":"svc-remote"}`,
	}
	api, baseURL := b.start(t)

	got, report, err := New(api, mapFallback{"tok": "svc-local"}).ResolveWithReport(context.Background(), Config{
		BaseURL:      baseURL,
		ProjectID:    7,
		UserIdentity: "u1",
		FallbackKey:  "tok",
	})
	require.NoError(t, err)
	assert.Equal(t, "svc-remote", got.ServiceToken)
	assert.Equal(t, OutcomeSkipped, report.Outcome(StageFallback))
}

func TestResolve_EmptyUserTokenIsNotFatalOnItsOwn(t *testing.T) {
	t.Parallel()

	b := &backend{
		projectStatus: http.StatusOK,
		projectBody:   `{"endpointUrl":"https://p.example","anonymousKey":"anon"}`,
		userStatus:    http.StatusOK,
		userBody:      `{}`,
	}
	api, baseURL := b.start(t)

	got, report, err := New(api, mapFallback{"tok": "svc-local"}).ResolveWithReport(context.Background(), Config{
		BaseURL:      baseURL,
		ProjectID:    7,
		UserIdentity: "u1",
		FallbackKey:  "tok",
	})
	require.NoError(t, err)
	assert.Equal(t, "svc-local", got.ServiceToken)
	assert.Equal(t, OutcomeEmpty, report.Outcome(StageUser))
}

func TestResolve_UnreachableBackend(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	got, err := New(NewAPI(nil), mapFallback{"tok": "svc"}).Resolve(context.Background(), Config{
		BaseURL:     baseURL,
		ProjectID:   7,
		Current:     &model.Bundle{EndpointURL: "https://p.example", AnonymousKey: "anon"},
		FallbackKey: "tok",
	})
	require.NoError(t, err)
	assert.Equal(t, "svc", got.ServiceToken)
	assert.Empty(t, got.StorageURL)
}

func TestResolve_DoesNotMutateCurrent(t *testing.T) {
	t.Parallel()

	b := &backend{
		projectStatus: http.StatusOK,
		projectBody:   `{"endpointUrl":"https://p.example","anonymousKey":"anon"}`,
		userStatus:    http.StatusOK,
		userBody:      `{"serviceToken":"svc"}`,
	}
	api, baseURL := b.start(t)

	current := &model.Bundle{}
	_, err := New(api, nil).Resolve(context.Background(), Config{BaseURL: baseURL, ProjectID: 7, Current: current})
	require.NoError(t, err)
	assert.Equal(t, &model.Bundle{}, current)
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "filled", OutcomeFilled.String())
	assert.Equal(t, "empty", OutcomeEmpty.String())
	assert.Equal(t, "unavailable", OutcomeUnavailable.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
