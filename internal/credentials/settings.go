package credentials

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GatewaySettings is the "gateway" section of a store's settings document.
type GatewaySettings struct {
	PublishableKey string `json:"publishableKey,omitempty"`
	SecretKey      string `json:"secretKey,omitempty"`
	WebhookSecret  string `json:"webhookSecret,omitempty"`
}

// Settings is the typed view of stores.settings. Keys it does not know are
// kept verbatim so a read-modify-write never drops them.
type Settings struct {
	Gateway  *GatewaySettings
	Currency string

	extra map[string]json.RawMessage
}

const (
	keyGateway  = "gateway"
	keyCurrency = "currency"
)

// ParseSettings decodes a settings document. Empty input yields zero settings.
func ParseSettings(raw []byte) (Settings, error) {
	var s Settings
	if len(strings.TrimSpace(string(raw))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("parse store settings: %w", err)
	}
	return s, nil
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = Settings{}
	if raw, ok := fields[keyGateway]; ok {
		if string(raw) != "null" {
			var gw GatewaySettings
			if err := json.Unmarshal(raw, &gw); err != nil {
				return fmt.Errorf("gateway: %w", err)
			}
			s.Gateway = &gw
		}
		delete(fields, keyGateway)
	}
	if raw, ok := fields[keyCurrency]; ok {
		if err := json.Unmarshal(raw, &s.Currency); err != nil {
			return fmt.Errorf("currency: %w", err)
		}
		delete(fields, keyCurrency)
	}
	if len(fields) > 0 {
		s.extra = fields
	}
	return nil
}

func (s Settings) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.extra)+2)
	for k, v := range s.extra {
		out[k] = v
	}
	if s.Gateway != nil {
		out[keyGateway] = s.Gateway
	}
	if s.Currency != "" {
		out[keyCurrency] = s.Currency
	}
	return json.Marshal(out)
}

// GatewayConfigured reports whether the store can create payment intents.
// The client confirms with the publishable key, so both keys are required.
func (s Settings) GatewayConfigured() bool {
	return s.Gateway != nil &&
		strings.TrimSpace(s.Gateway.SecretKey) != "" &&
		strings.TrimSpace(s.Gateway.PublishableKey) != ""
}

// GatewayPatch is a partial update of the gateway section. Nil fields are
// left unchanged; an empty string clears the value.
type GatewayPatch struct {
	PublishableKey *string
	SecretKey      *string
	WebhookSecret  *string
}

// Apply merges p into s.
func (s *Settings) Apply(p GatewayPatch) {
	gw := GatewaySettings{}
	if s.Gateway != nil {
		gw = *s.Gateway
	}
	if p.PublishableKey != nil {
		gw.PublishableKey = strings.TrimSpace(*p.PublishableKey)
	}
	if p.SecretKey != nil {
		gw.SecretKey = strings.TrimSpace(*p.SecretKey)
	}
	if p.WebhookSecret != nil {
		gw.WebhookSecret = strings.TrimSpace(*p.WebhookSecret)
	}
	if gw == (GatewaySettings{}) {
		s.Gateway = nil
		return
	}
	s.Gateway = &gw
}

// View is what the integrations endpoint exposes. Secrets are never echoed.
type View struct {
	PublishableKey   string `json:"publishableKey"`
	SecretKeySet     bool   `json:"secretKeySet"`
	WebhookSecretSet bool   `json:"webhookSecretSet"`
	SecretKeyLast4   string `json:"secretKeyLast4,omitempty"`
}

// Mask renders the gateway section for display.
func (s Settings) Mask() View {
	if s.Gateway == nil {
		return View{}
	}
	v := View{
		PublishableKey:   s.Gateway.PublishableKey,
		SecretKeySet:     s.Gateway.SecretKey != "",
		WebhookSecretSet: s.Gateway.WebhookSecret != "",
	}
	if key := s.Gateway.SecretKey; len(key) >= 8 {
		v.SecretKeyLast4 = key[len(key)-4:]
	}
	return v
}
