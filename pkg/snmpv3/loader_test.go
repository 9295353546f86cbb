package snmpv3

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCredentialsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snmpv3_credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCredentials(t *testing.T) {
	path := writeCredentialsFile(t, `
snmpv3_credentials:
  - username: netops
    credentials:
      - priority: 2
        auth_type: SHA256
        auth_password: backup-auth
        priv_type: AES256
        priv_password: backup-priv
      - priority: 1
        auth_type: SHA
        auth_password: primary-auth
        priv_type: AES
        priv_password: primary-priv
  - username: auditor
    credentials:
      - priority: 1
        auth_type: MD5
        auth_password: audit-auth
        priv_type: NONE
        priv_password: ""
        active: false
`)

	sets, err := LoadCredentials(path)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	netops := sets["netops"]
	require.NotNil(t, netops)
	require.Len(t, netops.Credentials, 2)
	// Sorted ascending by priority at load.
	assert.Equal(t, 1, netops.Credentials[0].Priority)
	assert.Equal(t, "primary-auth", netops.Credentials[0].AuthPassword)
	// Absent active key defaults to true.
	assert.True(t, netops.Credentials[0].Active)

	auditor := sets["auditor"]
	require.NotNil(t, auditor)
	assert.False(t, auditor.Credentials[0].Active)
	_, ok := auditor.Best()
	assert.False(t, ok)
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	sets, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestLoadCredentialsEmptyPath(t *testing.T) {
	sets, err := LoadCredentials("")
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestLoadCredentialsEmptyFile(t *testing.T) {
	path := writeCredentialsFile(t, "# nothing here\n")
	sets, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestLoadCredentialsMalformedYAML(t *testing.T) {
	path := writeCredentialsFile(t, "snmpv3_credentials: [unclosed\n")
	_, err := LoadCredentials(path)
	assert.Error(t, err)
}

func TestLoadCredentialsRejects3DES(t *testing.T) {
	path := writeCredentialsFile(t, `
snmpv3_credentials:
  - username: legacy
    credentials:
      - priority: 1
        auth_type: SHA
        auth_password: a
        priv_type: 3DES
        priv_password: p
`)
	_, err := LoadCredentials(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3DES")
	assert.Contains(t, err.Error(), "legacy")
}

func TestLoadCredentialsMissingUsername(t *testing.T) {
	path := writeCredentialsFile(t, `
snmpv3_credentials:
  - credentials:
      - priority: 1
        auth_type: SHA
        auth_password: a
        priv_type: NONE
        priv_password: ""
`)
	_, err := LoadCredentials(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without username")
}
