package source

import (
	"fmt"
	"os"
)

// fileVersion derives a change token from size and modification time.
func fileVersion(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	return fmt.Sprintf("%d-%d", st.Size(), st.ModTime().UnixNano()), nil
}
