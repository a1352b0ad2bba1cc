package ntfy

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tombee/conductor-ntfy/internal/operation/api"
	"github.com/tombee/conductor-ntfy/internal/operation/transport"
	pkgerrors "github.com/tombee/conductor-ntfy/pkg/errors"
)

// DefaultBaseURL is used when a credential does not name an instance.
const DefaultBaseURL = "https://ntfy.sh"

// Credential data keys.
const (
	CredentialBaseURL        = "baseUrl"
	CredentialAuthType       = "authType"
	CredentialUsername       = "username"
	CredentialPassword       = "password"
	CredentialBearerToken    = "bearerToken"
	CredentialQueryParameter = "queryParameter"
)

// AuthType names a credential variant.
type AuthType string

const (
	AuthTypeNone   AuthType = "noAuth"
	AuthTypeBasic  AuthType = "basicAuth"
	AuthTypeBearer AuthType = "bearerAuth"
	AuthTypeQuery  AuthType = "queryAuth"
)

// ErrInvalidCredentialsType is returned for an authType outside the four variants.
var ErrInvalidCredentialsType = errors.New("invalid credentials type")

// Auth is one credential variant. The set of implementations is closed.
type Auth interface {
	// Type returns the variant's auth type.
	Type() AuthType

	// Validate checks the variant's required fields.
	Validate() error

	// Authenticate attaches the variant's auth material to req and returns it.
	Authenticate(req *transport.Request) *transport.Request

	sealed()
}

// NoAuth leaves requests unchanged.
type NoAuth struct{}

func (NoAuth) Type() AuthType { return AuthTypeNone }
func (NoAuth) Validate() error { return nil }
func (NoAuth) sealed() {}

func (NoAuth) Authenticate(req *transport.Request) *transport.Request {
	return req
}

// BasicAuth sets transport-level basic-auth credentials.
type BasicAuth struct {
	Username string
	Password string
}

func (BasicAuth) Type() AuthType { return AuthTypeBasic }
func (BasicAuth) sealed() {}

func (a BasicAuth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Username, validation.Required.Error("username is required for basic auth")),
		validation.Field(&a.Password, validation.Required.Error("password is required for basic auth")),
	)
}

// Authenticate sets req.Auth. The Authorization header is written by the
// transport when the request is sent.
func (a BasicAuth) Authenticate(req *transport.Request) *transport.Request {
	req.Auth = &transport.BasicAuth{Username: a.Username, Password: a.Password}
	return req
}

// BearerAuth sends an access token in the Authorization header.
type BearerAuth struct {
	Token string
}

func (BearerAuth) Type() AuthType { return AuthTypeBearer }
func (BearerAuth) sealed() {}

func (a BearerAuth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Token, validation.Required.Error("bearer token is required for bearer auth")),
	)
}

// Authenticate replaces the header map with a single Authorization header.
// Headers set earlier, including ones from the publish header fields, are
// dropped.
func (a BearerAuth) Authenticate(req *transport.Request) *transport.Request {
	req.Headers = map[string]string{
		"Authorization": "Bearer " + a.Token,
	}
	return req
}

// QueryAuth sends credentials in the auth query parameter.
type QueryAuth struct {
	Parameter string
}

func (QueryAuth) Type() AuthType { return AuthTypeQuery }
func (QueryAuth) sealed() {}

func (a QueryAuth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Parameter, validation.Required.Error("query parameter is required for query auth")),
	)
}

// Authenticate appends "?auth=<value>" to req.URL as-is. A URL that already
// has a query string ends up with two '?' separators, and the value is not
// escaped.
func (a QueryAuth) Authenticate(req *transport.Request) *transport.Request {
	req.URL = req.URL + "?auth=" + a.Parameter
	return req
}

// Authenticate attaches auth to req. A nil auth leaves req unchanged.
func Authenticate(auth Auth, req *transport.Request) *transport.Request {
	if auth == nil {
		return req
	}
	return auth.Authenticate(req)
}

// Credential is a decoded ntfy credential.
type Credential struct {
	// BaseURL is the instance root with any trailing slash removed.
	BaseURL string

	// Auth is the active variant.
	Auth Auth
}

// ParseCredential decodes decrypted credential data. Only the fields of the
// selected auth type are read. An empty base URL selects DefaultBaseURL and
// an empty auth type selects noAuth.
func ParseCredential(data map[string]string) (*Credential, error) {
	baseURL := strings.TrimSpace(data[CredentialBaseURL])
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	authType := AuthType(data[CredentialAuthType])
	if authType == "" {
		authType = AuthTypeNone
	}

	var auth Auth
	switch authType {
	case AuthTypeNone:
		auth = NoAuth{}
	case AuthTypeBasic:
		auth = BasicAuth{Username: data[CredentialUsername], Password: data[CredentialPassword]}
	case AuthTypeBearer:
		auth = BearerAuth{Token: data[CredentialBearerToken]}
	case AuthTypeQuery:
		auth = QueryAuth{Parameter: data[CredentialQueryParameter]}
	default:
		return nil, &pkgerrors.ConfigError{
			Key:    CredentialAuthType,
			Reason: fmt.Sprintf("%s %q", ErrInvalidCredentialsType.Error(), string(authType)),
			Cause:  ErrInvalidCredentialsType,
		}
	}

	return &Credential{
		BaseURL: NormalizeBaseURL(baseURL),
		Auth:    auth,
	}, nil
}

// Validate checks the base URL and the active variant's fields.
func (c *Credential) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
	)
	if err == nil {
		err = c.Auth.Validate()
	}
	if err != nil {
		return pkgerrors.FromValidation(err)
	}
	return nil
}

// CredentialDescriptor describes the credential fields.
func CredentialDescriptor() *api.OperationSchema {
	show := func(t AuthType) map[string][]interface{} {
		return map[string][]interface{}{CredentialAuthType: {string(t)}}
	}
	return &api.OperationSchema{
		Description: "ntfy API",
		Parameters: []api.ParameterInfo{
			{
				Name:        CredentialBaseURL,
				DisplayName: "Base URL",
				Type:        "string",
				Description: "Base URL of the ntfy instance",
				Required:    true,
				Default:     DefaultBaseURL,
			},
			{
				Name:        CredentialAuthType,
				DisplayName: "Auth Type",
				Type:        "options",
				Description: "Auth type to use (https://docs.ntfy.sh/publish/#authentication)",
				Required:    true,
				Default:     string(AuthTypeNone),
				Options: []api.OptionInfo{
					{Name: "No Auth", Value: string(AuthTypeNone)},
					{Name: "Basic Auth", Value: string(AuthTypeBasic)},
					{Name: "Bearer Auth", Value: string(AuthTypeBearer)},
					{Name: "Query Auth", Value: string(AuthTypeQuery)},
				},
			},
			{
				Name:        CredentialUsername,
				DisplayName: "Username",
				Type:        "string",
				Description: "Username for basic auth",
				Required:    true,
				Default:     "",
				DisplayWhen: show(AuthTypeBasic),
			},
			{
				Name:        CredentialPassword,
				DisplayName: "Password",
				Type:        "string",
				Description: "Password for basic auth",
				Required:    true,
				Default:     "",
				Placeholder: "e.g. mypassword123",
				DisplayWhen: show(AuthTypeBasic),
				Secret:      true,
			},
			{
				Name:        CredentialBearerToken,
				DisplayName: "Bearer Token",
				Type:        "string",
				Description: "Access token for bearer auth",
				Required:    true,
				Default:     "",
				Placeholder: "e.g. tk_AgQdq7mVBoFD37zQVN29RhuMzNIz2",
				DisplayWhen: show(AuthTypeBearer),
				Secret:      true,
			},
			{
				Name:        CredentialQueryParameter,
				DisplayName: "Query Parameter",
				Type:        "string",
				Description: "Value of the auth query parameter",
				Required:    true,
				Default:     "",
				DisplayWhen: show(AuthTypeQuery),
				Secret:      true,
			},
		},
	}
}
