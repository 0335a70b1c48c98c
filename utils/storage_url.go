package utils

import (
	"fmt"
	"strings"
)

// ExtractObjectPath pulls the bucket-relative object path out of a public
// storage URL, so a stored image URL can be deleted from the bucket later.
func ExtractObjectPath(url string) (string, error) {
	const prefix = "https://storage.googleapis.com/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("not a storage URL")
	}

	// Strip prefix and bucket name, keep the object path.
	path := strings.TrimPrefix(url, prefix)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", fmt.Errorf("storage URL has no object path")
	}

	return parts[1], nil
}
