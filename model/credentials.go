package model

type (
	// CredentialService is a persisted key-value store. Missing keys yield ErrNotFound.
	CredentialService interface {
		GetAllCredentials() (map[string]string, error)
		GetKey(name string) (string, error)
		SetKey(name, value string) error
		DeleteKey(name string) error
	}

	Credential struct {
		Name  string `db:"name"`
		Value string `db:"value"`
	}
)
