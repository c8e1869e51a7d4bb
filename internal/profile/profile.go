// File: internal/profile/profile.go
// Brief: Kubernetes cluster profile model.

// Package profile models the named Kubernetes cluster profiles managed by
// `olympus config cloud` and persists them in an INI file.
package profile

import (
	"fmt"
	"strings"
)

// Provider identifies where a cluster is hosted.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderGKE   Provider = "gke"
	ProviderOther Provider = "other"
)

// TLSMode is the tag of a TLS variant.
type TLSMode string

const (
	TLSModeDefault    TLSMode = "default"
	TLSModeSkipVerify TLSMode = "skip-verification"
	TLSModeCustomCA   TLSMode = "custom-ca"
)

// AuthMethod is the tag of an Auth variant.
type AuthMethod string

const (
	AuthUserPass   AuthMethod = "user-pass"
	AuthToken      AuthMethod = "token"
	AuthPrivateKey AuthMethod = "private-key"
)

// Profile is one named set of connection parameters for a cluster.
type Profile struct {
	Name     string
	Provider Provider
	URL      string
	TLS      TLS
	Auth     Auth
}

// TLS is implemented by DefaultTLS, SkipVerifyTLS and CustomCATLS only.
type TLS interface {
	Mode() TLSMode
	isTLS()
}

// DefaultTLS uses the system trust store.
type DefaultTLS struct{}

// SkipVerifyTLS disables server certificate verification.
type SkipVerifyTLS struct{}

// CustomCATLS trusts the CA bundle at CAPath.
type CustomCATLS struct {
	CAPath string
}

func (DefaultTLS) Mode() TLSMode    { return TLSModeDefault }
func (SkipVerifyTLS) Mode() TLSMode { return TLSModeSkipVerify }
func (CustomCATLS) Mode() TLSMode   { return TLSModeCustomCA }

func (DefaultTLS) isTLS()    {}
func (SkipVerifyTLS) isTLS() {}
func (CustomCATLS) isTLS()   {}

// Auth is implemented by UserPassAuth, TokenAuth and PrivateKeyAuth only.
type Auth interface {
	Method() AuthMethod
	isAuth()
}

// UserPassAuth authenticates with HTTP basic credentials.
type UserPassAuth struct {
	Username string
	Password string
}

// TokenAuth authenticates with a bearer token.
type TokenAuth struct {
	Token string
}

// PrivateKeyAuth authenticates with a client certificate and its private key.
type PrivateKeyAuth struct {
	PrivateKeyPath string
	CertPath       string
}

func (UserPassAuth) Method() AuthMethod   { return AuthUserPass }
func (TokenAuth) Method() AuthMethod      { return AuthToken }
func (PrivateKeyAuth) Method() AuthMethod { return AuthPrivateKey }

func (UserPassAuth) isAuth()   {}
func (TokenAuth) isAuth()      {}
func (PrivateKeyAuth) isAuth() {}

// ParseProvider accepts provider names case-insensitively.
func ParseProvider(raw string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(raw))); p {
	case ProviderAWS, ProviderGKE, ProviderOther:
		return p, nil
	default:
		return "", fmt.Errorf("unknown provider %q (expected aws, gke or other)", raw)
	}
}

// ParseTLSMode validates a TLS tag.
func ParseTLSMode(raw string) (TLSMode, error) {
	switch m := TLSMode(strings.TrimSpace(raw)); m {
	case TLSModeDefault, TLSModeSkipVerify, TLSModeCustomCA:
		return m, nil
	default:
		return "", fmt.Errorf("unknown tls mode %q (expected default, skip-verification or custom-ca)", raw)
	}
}

// ParseAuthMethod validates an auth tag.
func ParseAuthMethod(raw string) (AuthMethod, error) {
	switch m := AuthMethod(strings.TrimSpace(raw)); m {
	case AuthUserPass, AuthToken, AuthPrivateKey:
		return m, nil
	default:
		return "", fmt.Errorf("unknown auth method %q (expected user-pass, token or private-key)", raw)
	}
}

// Field keys shared by the wizard answers and the persisted sections.
const (
	KeyProvider       = "provider"
	KeyURL            = "url"
	KeyTLSMode        = "tlsMode"
	KeyCAPath         = "caPath"
	KeyAuthMethod     = "authMethod"
	KeyUsername       = "username"
	KeyPassword       = "password"
	KeyToken          = "token"
	KeyPrivateKeyPath = "privateKeyPath"
	KeyCertPath       = "certPath"
)

// Fields flattens p into the key/value pairs that describe it. Only the keys
// relevant to the selected TLS and auth variants are present.
func (p Profile) Fields() map[string]string {
	out := map[string]string{
		KeyProvider: string(p.Provider),
		KeyURL:      p.URL,
	}
	if p.TLS != nil {
		out[KeyTLSMode] = string(p.TLS.Mode())
		if ca, ok := p.TLS.(CustomCATLS); ok {
			out[KeyCAPath] = ca.CAPath
		}
	}
	if p.Auth != nil {
		out[KeyAuthMethod] = string(p.Auth.Method())
		switch a := p.Auth.(type) {
		case UserPassAuth:
			out[KeyUsername] = a.Username
			out[KeyPassword] = a.Password
		case TokenAuth:
			out[KeyToken] = a.Token
		case PrivateKeyAuth:
			out[KeyPrivateKeyPath] = a.PrivateKeyPath
			out[KeyCertPath] = a.CertPath
		}
	}
	return out
}

// FromFields assembles a profile from flattened fields. Keys that belong to
// variants other than the selected ones are ignored.
func FromFields(name string, fields map[string]string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Profile{}, fmt.Errorf("profile name is empty")
	}
	provider, err := ParseProvider(fields[KeyProvider])
	if err != nil {
		return Profile{}, err
	}
	url := strings.TrimSpace(fields[KeyURL])
	if url == "" {
		return Profile{}, fmt.Errorf("profile %q has no url", name)
	}
	tlsMode, err := ParseTLSMode(defaultString(fields[KeyTLSMode], string(TLSModeDefault)))
	if err != nil {
		return Profile{}, err
	}
	var tls TLS
	switch tlsMode {
	case TLSModeDefault:
		tls = DefaultTLS{}
	case TLSModeSkipVerify:
		tls = SkipVerifyTLS{}
	case TLSModeCustomCA:
		ca, err := required(fields, KeyCAPath, name)
		if err != nil {
			return Profile{}, err
		}
		tls = CustomCATLS{CAPath: ca}
	}

	method, err := ParseAuthMethod(fields[KeyAuthMethod])
	if err != nil {
		return Profile{}, err
	}
	var auth Auth
	switch method {
	case AuthUserPass:
		user, err := required(fields, KeyUsername, name)
		if err != nil {
			return Profile{}, err
		}
		auth = UserPassAuth{Username: user, Password: fields[KeyPassword]}
	case AuthToken:
		token, err := required(fields, KeyToken, name)
		if err != nil {
			return Profile{}, err
		}
		auth = TokenAuth{Token: token}
	case AuthPrivateKey:
		key, err := required(fields, KeyPrivateKeyPath, name)
		if err != nil {
			return Profile{}, err
		}
		cert, err := required(fields, KeyCertPath, name)
		if err != nil {
			return Profile{}, err
		}
		auth = PrivateKeyAuth{PrivateKeyPath: key, CertPath: cert}
	}

	return Profile{Name: name, Provider: provider, URL: url, TLS: tls, Auth: auth}, nil
}

func required(fields map[string]string, key, name string) (string, error) {
	v := fields[key]
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("profile %q is missing %s", name, key)
	}
	return v, nil
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
