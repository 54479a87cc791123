package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/court-scheduler/internal/application"
)

type usersFile struct {
	Users []userEntry `yaml:"users"`
}

type userEntry struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// LoadUsers reads the user table from a YAML file. An empty path yields the
// built-in users.
func LoadUsers(path string) ([]application.Credential, error) {
	if path == "" {
		return application.DefaultCredentials(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var doc usersFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse users file %s: %w", path, err)
	}
	if len(doc.Users) == 0 {
		return nil, fmt.Errorf("users file %s defines no users", path)
	}

	creds := make([]application.Credential, 0, len(doc.Users))
	for _, u := range doc.Users {
		creds = append(creds, application.Credential{
			Username:     u.Username,
			Password:     u.Password,
			PasswordHash: u.PasswordHash,
		})
	}
	return creds, nil
}
