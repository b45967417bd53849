package model

// Bundle holds everything needed to talk to the backing data service.
// EndpointURL, AnonymousKey and StorageURL belong to a project, ServiceToken
// belongs to a user.
type Bundle struct {
	EndpointURL  string `json:"endpointUrl"`
	AnonymousKey string `json:"anonymousKey"`
	ServiceToken string `json:"serviceToken"`
	StorageURL   string `json:"storageUrl"`
}

// NeedsProject reports whether any project-scoped field is still empty.
func (b Bundle) NeedsProject() bool {
	return b.EndpointURL == "" || b.AnonymousKey == "" || b.StorageURL == ""
}

// MissingFields lists the required fields that are empty, by their JSON names.
func (b Bundle) MissingFields() []string {
	var missing []string
	if b.EndpointURL == "" {
		missing = append(missing, "endpointUrl")
	}
	if b.AnonymousKey == "" {
		missing = append(missing, "anonymousKey")
	}
	if b.ServiceToken == "" {
		missing = append(missing, "serviceToken")
	}
	return missing
}

func (b Bundle) Complete() bool {
	return len(b.MissingFields()) == 0
}
