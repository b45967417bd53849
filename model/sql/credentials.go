package sql

import (
	"database/sql"
	"errors"

	"github.com/Brawl345/supacreds/logger"
	"github.com/Brawl345/supacreds/model"
	"github.com/jmoiron/sqlx"
)

type credentialService struct {
	*sqlx.DB
	dialect Dialect
	log     *logger.Logger
}

// NewCredentialService reads and writes the credentials table directly, so
// keys changed by another process are seen on the next read.
func NewCredentialService(db *sqlx.DB, dialect Dialect) *credentialService {
	return &credentialService{
		DB:      db,
		dialect: dialect,
		log:     logger.New("credentialService"),
	}
}

func (db *credentialService) GetAllCredentials() (map[string]string, error) {
	const query = `SELECT name, value FROM credentials`
	var credentials []model.Credential
	if err := db.Select(&credentials, query); err != nil {
		return nil, err
	}

	all := make(map[string]string, len(credentials))
	for _, cred := range credentials {
		all[cred.Name] = cred.Value
	}
	return all, nil
}

func (db *credentialService) GetKey(name string) (string, error) {
	const query = `SELECT value FROM credentials WHERE name = ?`
	var value string
	err := db.Get(&value, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNotFound
	}
	return value, err
}

func (db *credentialService) SetKey(name, value string) error {
	query := `INSERT INTO credentials (name, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)`
	if db.dialect == SQLite {
		query = `INSERT INTO credentials (name, value) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET value = excluded.value`
	}

	if _, err := db.Exec(query, name, value); err != nil {
		return err
	}
	db.log.Debug().Str("name", name).Msg("Key saved")
	return nil
}

func (db *credentialService) DeleteKey(name string) error {
	const query = `DELETE FROM credentials WHERE name = ?`
	res, err := db.Exec(query, name)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrNotFound
	}

	db.log.Debug().Str("name", name).Msg("Key deleted")
	return nil
}
