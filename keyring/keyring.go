// Package keyring keeps fallback credentials in the operating system's keyring.
package keyring

import (
	"errors"

	"github.com/Brawl345/supacreds/logger"
	"github.com/Brawl345/supacreds/model"
	gokeyring "github.com/zalando/go-keyring"
)

const DefaultService = "supacreds"

var ErrListUnsupported = errors.New("listing credentials is not supported by the OS keyring")

type credentialService struct {
	service string
	log     *logger.Logger
}

func NewCredentialService(service string) *credentialService {
	if service == "" {
		service = DefaultService
	}
	return &credentialService{
		service: service,
		log:     logger.New("keyring"),
	}
}

func (s *credentialService) GetAllCredentials() (map[string]string, error) {
	return nil, ErrListUnsupported
}

func (s *credentialService) GetKey(name string) (string, error) {
	value, err := gokeyring.Get(s.service, name)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return "", model.ErrNotFound
	}
	if err != nil {
		s.log.Debug().Err(err).Str("key", name).Msg("Keyring read failed")
		return "", err
	}
	return value, nil
}

func (s *credentialService) SetKey(name, value string) error {
	return gokeyring.Set(s.service, name, value)
}

func (s *credentialService) DeleteKey(name string) error {
	err := gokeyring.Delete(s.service, name)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return model.ErrNotFound
	}
	return err
}
