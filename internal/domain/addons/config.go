package addons

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type InquiryConfig struct {
	NotificationEmail string `json:"notification_email" validate:"required,email"`
	Title             string `json:"title,omitempty" validate:"max=120"`
}

type QnAConfig struct {
	AllowAnonymous bool   `json:"allow_anonymous"`
	Moderated      bool   `json:"moderated"`
	Title          string `json:"title,omitempty" validate:"max=120"`
}

type DomainConfig struct {
	Domain       string       `json:"domain" validate:"required,fqdn"`
	Status       DomainStatus `json:"status" validate:"required"`
	CancelReason string       `json:"cancel_reason,omitempty"`
}

// DecodeConfig parses and validates raw config for the given add-on type and
// returns it re-encoded in canonical form. An empty body is treated as {}.
func DecodeConfig(t Type, raw json.RawMessage) (any, json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		raw = json.RawMessage("{}")
	}

	var target any
	switch t {
	case TypeInquiry:
		target = &InquiryConfig{}
	case TypeQnA:
		target = &QnAConfig{}
	case TypeDomain:
		target = &DomainConfig{}
	default:
		return nil, nil, fmt.Errorf("unknown add-on type %q", t)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return nil, nil, fmt.Errorf("invalid %s config: %v", t, err)
	}
	if err := validate.Struct(target); err != nil {
		return nil, nil, fmt.Errorf("invalid %s config: %s", t, describe(err))
	}

	canonical, err := json.Marshal(target)
	if err != nil {
		return nil, nil, err
	}
	return target, canonical, nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

// ValidDomain reports whether d is a fully qualified domain name.
func ValidDomain(d string) bool {
	return len(d) <= 253 && validate.Var(d, "required,fqdn") == nil
}

// ValidEmail reports whether e is a usable email address.
func ValidEmail(e string) bool {
	return validate.Var(e, "required,email") == nil
}

// ParseDomainConfig reads a stored domain add-on config.
func ParseDomainConfig(raw json.RawMessage) (DomainConfig, error) {
	var cfg DomainConfig
	if len(raw) == 0 {
		return cfg, nil
	}
	err := json.Unmarshal(raw, &cfg)
	return cfg, err
}
