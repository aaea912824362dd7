package fir

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// DocumentHash is the content hash of a document's JSON encoding. Map keys
// are encoded in sorted order, so equal documents hash equally.
func DocumentHash(doc any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return ContentHashHex(data), nil
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
