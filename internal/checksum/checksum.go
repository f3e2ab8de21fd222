package checksum

import (
	"crypto/sha256"
	"fmt"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateContentHash возвращает SHA256 проверенного HTML в hex
func (g *Generator) GenerateContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf("%x", hash)
}
