package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Brawl345/supacreds/utils/httpUtils"
	"github.com/tidwall/gjson"
)

// Field names in the project payload, legacy spelling first. Matching is
// exact; the legacy lower-case keys predate the camel-case ones.
var (
	endpointFields = []string{"endpointurl", "endpointUrl"}
	anonKeyFields  = []string{"aneonkey", "anonymousKey"}
	storageFields  = []string{"dburl", "dbUrl", "storageUrl"}
)

const serviceTokenField = "serviceToken"

var errNotAnObject = errors.New("response is not a JSON object")

type ProjectCredentials struct {
	EndpointURL  string
	AnonymousKey string
	StorageURL   string
}

// API reads project and user records from the dashboard backend.
type API struct {
	options *httpUtils.HttpOptions
}

func NewAPI(options *httpUtils.HttpOptions) *API {
	return &API{options: options}
}

// FetchProjectCredentials reads {baseURL}/api/projects/{projectID}.
func (a *API) FetchProjectCredentials(ctx context.Context, baseURL string, projectID int64, authToken string) (ProjectCredentials, error) {
	endpoint := joinURL(baseURL, "api", "projects", strconv.FormatInt(projectID, 10))

	payload, err := a.getObject(ctx, endpoint, authToken)
	if err != nil {
		return ProjectCredentials{}, err
	}

	return ProjectCredentials{
		EndpointURL:  firstOf(payload, endpointFields),
		AnonymousKey: firstOf(payload, anonKeyFields),
		StorageURL:   firstOf(payload, storageFields),
	}, nil
}

// FetchUserToken reads {baseURL}/api/users/external/{identity} and returns
// its service token, or "" if the record has none.
func (a *API) FetchUserToken(ctx context.Context, baseURL, identity, authToken string) (string, error) {
	endpoint := joinURL(baseURL, "api", "users", "external", url.PathEscape(identity))

	payload, err := a.getObject(ctx, endpoint, authToken)
	if err != nil {
		return "", err
	}

	return payload.Get(serviceTokenField).String(), nil
}

func (a *API) getObject(ctx context.Context, endpoint, authToken string) (gjson.Result, error) {
	body, err := httpUtils.GetRequestWithHeader(ctx, endpoint, httpUtils.BearerHeaders(authToken), a.options)
	if err != nil {
		return gjson.Result{}, err
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s: invalid JSON", endpoint)
	}
	payload := gjson.ParseBytes(body)
	if !payload.IsObject() {
		return gjson.Result{}, fmt.Errorf("%s: %w", endpoint, errNotAnObject)
	}
	return payload, nil
}

// firstOf returns the first non-empty value among the given keys.
func firstOf(payload gjson.Result, keys []string) string {
	for _, key := range keys {
		if v := payload.Get(gjson.Escape(key)); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func joinURL(base string, segments ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
