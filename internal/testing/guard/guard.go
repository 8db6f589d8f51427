// Package guard switches binaries into test mode when a test imports it.
package guard

import "os"

const envKey = "ODYSSEY_TEST_MODE"

func init() {
	if os.Getenv(envKey) == "" {
		_ = os.Setenv(envKey, "1")
	}
}

// Active reports whether test mode is switched on.
func Active() bool {
	return os.Getenv(envKey) == "1"
}
