package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

// ResolveCredentials collects an API key for each backend that names one. The
// environment variable wins; when it is unset and stdin is a terminal, the
// operator is prompted once without echo. A backend whose key cannot be
// resolved is simply absent from the result and runs degraded, so resolution
// never fails.
func ResolveCredentials(backends map[string]BackendConfig) map[string]string {
	creds := make(map[string]string)

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b := backends[name]
		if b.APIKeyEnv == "" {
			continue
		}
		if key := os.Getenv(b.APIKeyEnv); key != "" {
			creds[name] = key
			continue
		}
		prompt := fmt.Sprintf("Enter %s for backend %q (leave empty to run degraded): ", b.APIKeyEnv, name)
		if key := promptSecret(prompt); key != "" {
			creds[name] = key
		}
	}
	return creds
}

// promptSecret reads a secret from the terminal without echo. Returns empty
// when stdin is not a terminal, so non-interactive runs skip straight to
// degraded mode.
func promptSecret(prompt string) string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ""
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
