// Package snmpv3 holds SNMPv3 USM credential sets, their YAML loader and the
// rotation manager used by the trap listener.
package snmpv3

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// AuthProtocol is an SNMPv3 authentication protocol name.
type AuthProtocol string

const (
	AuthNone   AuthProtocol = "NONE"
	AuthMD5    AuthProtocol = "MD5"
	AuthSHA    AuthProtocol = "SHA"
	AuthSHA224 AuthProtocol = "SHA224"
	AuthSHA256 AuthProtocol = "SHA256"
	AuthSHA384 AuthProtocol = "SHA384"
	AuthSHA512 AuthProtocol = "SHA512"
)

// PrivProtocol is an SNMPv3 privacy protocol name.
type PrivProtocol string

const (
	PrivNone   PrivProtocol = "NONE"
	PrivDES    PrivProtocol = "DES"
	Priv3DES   PrivProtocol = "3DES"
	PrivAES    PrivProtocol = "AES"
	PrivAES128 PrivProtocol = "AES128"
	PrivAES192 PrivProtocol = "AES192"
	PrivAES256 PrivProtocol = "AES256"
)

// Credential is a single auth/priv pair for one user. Lower priority numbers
// are tried first during rotation.
type Credential struct {
	Priority     int
	AuthType     AuthProtocol
	AuthPassword string
	PrivType     PrivProtocol
	PrivPassword string
	Active       bool
}

func (c Credential) hasAuth() bool {
	a := strings.ToUpper(strings.TrimSpace(string(c.AuthType)))
	return a != "" && a != string(AuthNone)
}

func (c Credential) hasPriv() bool {
	p := strings.ToUpper(strings.TrimSpace(string(c.PrivType)))
	return p != "" && p != string(PrivNone)
}

// ToGoSNMPAuth maps the auth protocol name onto the gosnmp constant.
// SHA1 is accepted as an alias for SHA.
func (c Credential) ToGoSNMPAuth() gosnmp.SnmpV3AuthProtocol {
	switch strings.ToUpper(strings.TrimSpace(string(c.AuthType))) {
	case string(AuthMD5):
		return gosnmp.MD5
	case string(AuthSHA), "SHA1":
		return gosnmp.SHA
	case string(AuthSHA224):
		return gosnmp.SHA224
	case string(AuthSHA256):
		return gosnmp.SHA256
	case string(AuthSHA384):
		return gosnmp.SHA384
	case string(AuthSHA512):
		return gosnmp.SHA512
	default:
		return gosnmp.NoAuth
	}
}

// ToGoSNMPPriv maps the privacy protocol name onto the gosnmp constant.
// AES is an alias for AES128.
func (c Credential) ToGoSNMPPriv() gosnmp.SnmpV3PrivProtocol {
	switch strings.ToUpper(strings.TrimSpace(string(c.PrivType))) {
	case string(PrivDES):
		return gosnmp.DES
	case string(PrivAES), string(PrivAES128):
		return gosnmp.AES
	case string(PrivAES192):
		return gosnmp.AES192
	case string(PrivAES256):
		return gosnmp.AES256
	default:
		return gosnmp.NoPriv
	}
}

// SecurityLevel derives the USM message flags from which keys are present.
func (c Credential) SecurityLevel() gosnmp.SnmpV3MsgFlags {
	if !c.hasAuth() {
		return gosnmp.NoAuthNoPriv
	}
	if !c.hasPriv() {
		return gosnmp.AuthNoPriv
	}
	return gosnmp.AuthPriv
}

// Validate checks the credential for protocol names the wire codec can
// serve and for the passphrases those protocols require.
func (c Credential) Validate() error {
	auth := strings.ToUpper(strings.TrimSpace(string(c.AuthType)))
	switch AuthProtocol(auth) {
	case AuthNone, AuthMD5, AuthSHA, AuthSHA224, AuthSHA256, AuthSHA384, AuthSHA512, "":
	case "SHA1":
	default:
		return fmt.Errorf("unknown auth protocol %q", c.AuthType)
	}

	priv := strings.ToUpper(strings.TrimSpace(string(c.PrivType)))
	switch PrivProtocol(priv) {
	case Priv3DES:
		// The gosnmp wire path has no 3DES cipher.
		return fmt.Errorf("3DES privacy is not supported; use DES, AES128, AES192 or AES256")
	case PrivNone, PrivDES, PrivAES, PrivAES128, PrivAES192, PrivAES256, "":
	default:
		return fmt.Errorf("unknown privacy protocol %q", c.PrivType)
	}

	if c.hasPriv() && !c.hasAuth() {
		return fmt.Errorf("privacy protocol %s requires an auth protocol", priv)
	}
	if c.hasAuth() && c.AuthPassword == "" {
		return fmt.Errorf("auth protocol %s requires a password", auth)
	}
	if c.hasPriv() && c.PrivPassword == "" {
		return fmt.Errorf("privacy protocol %s requires a password", priv)
	}
	return nil
}

// UsmParams builds gosnmp USM security parameters for this credential.
func (c Credential) UsmParams(username string) *gosnmp.UsmSecurityParameters {
	return &gosnmp.UsmSecurityParameters{
		UserName:                 username,
		AuthenticationProtocol:   c.ToGoSNMPAuth(),
		AuthenticationPassphrase: c.AuthPassword,
		PrivacyProtocol:          c.ToGoSNMPPriv(),
		PrivacyPassphrase:        c.PrivPassword,
	}
}

// CredentialSet is the ordered collection of credentials for one username.
type CredentialSet struct {
	Username    string
	Credentials []Credential
}

// ActiveCredentials returns the active credentials sorted with the lowest
// priority number first. The returned slice is a copy.
func (s *CredentialSet) ActiveCredentials() []Credential {
	active := make([]Credential, 0, len(s.Credentials))
	for _, c := range s.Credentials {
		if c.Active {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority < active[j].Priority
	})
	return active
}

// Best returns the highest-priority active credential, if any.
func (s *CredentialSet) Best() (Credential, bool) {
	active := s.ActiveCredentials()
	if len(active) == 0 {
		return Credential{}, false
	}
	return active[0], true
}
