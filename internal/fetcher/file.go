package fetcher

import (
	"fmt"
	"os"
)

// ReadLocalHTML читает HTML файл целиком. Существование файла проверяет CLI.
func ReadLocalHTML(path string) ([]byte, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read html file: %w", err)
	}
	return body, nil
}
