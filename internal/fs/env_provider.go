package fs

import (
	"os"
	"strings"
)

// EnvProvider looks up environment variables. Unset variables read as "".
type EnvProvider interface {
	Get(key string) string
}

// OSEnv reads the process environment. Surrounding whitespace is dropped so a
// variable holding only blanks counts as unset.
type OSEnv struct{}

func (OSEnv) Get(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// MapEnvProvider serves variables from a fixed map, for tests.
type MapEnvProvider map[string]string

func (m MapEnvProvider) Get(key string) string {
	return m[key]
}
