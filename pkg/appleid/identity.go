package appleid

import (
	"fmt"
	"log/slog"
	"strings"
)

// ClientIdentity is everything needed to mint a client assertion. It is
// loaded once at startup and never changes afterwards.
type ClientIdentity struct {
	// TeamID is the 10 character Apple Developer team identifier (iss)
	TeamID string

	// ClientID is the Services ID or App ID the user signed in to (sub, client_id)
	ClientID string

	// KeyID is the identifier of the Sign in with Apple private key (kid)
	KeyID string

	// PrivateKey is the AuthKey_<KeyID>.p8 file, base64 encoded
	PrivateKey string
}

// Validate fails with ErrConfiguration naming every empty field.
func (id ClientIdentity) Validate() error {
	var missing []string
	if strings.TrimSpace(id.TeamID) == "" {
		missing = append(missing, "team id")
	}
	if strings.TrimSpace(id.ClientID) == "" {
		missing = append(missing, "client id")
	}
	if strings.TrimSpace(id.KeyID) == "" {
		missing = append(missing, "key id")
	}
	if strings.TrimSpace(id.PrivateKey) == "" {
		missing = append(missing, "private key")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// LogValue keeps the key material out of logs.
func (id ClientIdentity) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("team_id", id.TeamID),
		slog.String("client_id", id.ClientID),
		slog.String("key_id", id.KeyID),
	)
}
