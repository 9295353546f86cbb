package snmpv3

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mutt-telemetry/mutt/internal/logger"
)

type credentialsFile struct {
	Users []userEntry `yaml:"snmpv3_credentials"`
}

type userEntry struct {
	Username    string    `yaml:"username"`
	Credentials []rawCred `yaml:"credentials"`
}

// rawCred keeps Active a pointer so an absent key defaults to true.
type rawCred struct {
	Priority     int    `yaml:"priority"`
	AuthType     string `yaml:"auth_type"`
	AuthPassword string `yaml:"auth_password"`
	PrivType     string `yaml:"priv_type"`
	PrivPassword string `yaml:"priv_password"`
	Active       *bool  `yaml:"active"`
}

// LoadCredentials reads SNMPv3 credential sets from a YAML file keyed by
// `snmpv3_credentials`. A missing or empty file is not an error: the daemon
// starts without v3 users and logs a warning. Malformed YAML and invalid
// credentials are errors.
func LoadCredentials(path string) (map[string]*CredentialSet, error) {
	sets := make(map[string]*CredentialSet)
	if path == "" {
		return sets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("SNMPv3 credentials file not found, starting without v3 users", "path", path)
			return sets, nil
		}
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}

	var file credentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	if len(file.Users) == 0 {
		logger.Warn("no SNMPv3 credentials found", "path", path)
		return sets, nil
	}

	for _, user := range file.Users {
		if user.Username == "" {
			return nil, fmt.Errorf("credentials file %s: entry without username", path)
		}
		creds := make([]Credential, 0, len(user.Credentials))
		for i, rc := range user.Credentials {
			cred := Credential{
				Priority:     rc.Priority,
				AuthType:     AuthProtocol(rc.AuthType),
				AuthPassword: rc.AuthPassword,
				PrivType:     PrivProtocol(rc.PrivType),
				PrivPassword: rc.PrivPassword,
				Active:       rc.Active == nil || *rc.Active,
			}
			if err := cred.Validate(); err != nil {
				return nil, fmt.Errorf("credentials for user %q, entry %d: %w", user.Username, i+1, err)
			}
			creds = append(creds, cred)
		}
		sort.SliceStable(creds, func(i, j int) bool {
			return creds[i].Priority < creds[j].Priority
		})

		if _, exists := sets[user.Username]; exists {
			logger.Warn("duplicate SNMPv3 username in credentials file, keeping the later entry", "username", user.Username)
		}
		sets[user.Username] = &CredentialSet{Username: user.Username, Credentials: creds}
		logger.Info("Loaded SNMPv3 credentials", "username", user.Username, "credentials", len(creds))
	}
	return sets, nil
}
