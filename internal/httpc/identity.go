package httpc

import (
	"os"
	"strings"
)

// identityEnvVar is the last-resort source for the outbound identity,
// required by the SEC's fair access policy.
const identityEnvVar = "EDGAR_IDENTITY"

// ResolveIdentity determines the User-Agent identity for an outbound call.
// Precedence: explicit value, then the resolver func, then the
// EDGAR_IDENTITY environment variable. An empty result at the end of the
// chain is ErrIdentityNotSet.
//
// Resolution runs before every call: a resolver func may return a different
// identity each time.
func ResolveIdentity(explicit string, fn func() string) (string, error) {
	identity := strings.TrimSpace(explicit)
	if identity == "" && fn != nil {
		identity = strings.TrimSpace(fn())
	}
	if identity == "" {
		identity = strings.TrimSpace(os.Getenv(identityEnvVar))
	}
	if identity == "" {
		return "", ErrIdentityNotSet
	}
	return identity, nil
}
