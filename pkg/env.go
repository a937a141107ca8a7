package pkg

import "os"

// Getenv returns the value of the environment variable key, or
// defaultValue when it is not set. A variable set to "" is returned as is.
func Getenv(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}
