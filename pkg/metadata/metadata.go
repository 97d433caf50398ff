// Package metadata fingerprints tabular content so unchanged data can be detected.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Version is the fingerprint format version.
const Version = "1"

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// Metadata verification errors.
var (
	ErrNoHashFound  = errors.New("no hash found in metadata")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Metadata describes a signed piece of content.
type Metadata struct {
	LastModify time.Time `json:"lastModify"`
	Version    string    `json:"version"`
	Hash       string    `json:"hash"`
	Validation bool      `json:"validation"`
}

// CalculateHash computes the SHA-256 hash of content.
func CalculateHash(content string) string {
	hash := sha256.Sum256([]byte(content))

	return hex.EncodeToString(hash[:])
}

// HashRecords hashes rows of fields. Separators are ASCII unit and record
// separators so field boundaries cannot collide with cell text.
func HashRecords(records [][]string) string {
	var sb strings.Builder

	for _, fields := range records {
		sb.WriteString(strings.Join(fields, fieldSep))
		sb.WriteString(recordSep)
	}

	return CalculateHash(sb.String())
}

// Sign returns fresh metadata for records.
func Sign(records [][]string, validated bool) Metadata {
	return Metadata{
		LastModify: time.Now().UTC(),
		Version:    Version,
		Hash:       HashRecords(records),
		Validation: validated,
	}
}

// Verify checks that records still match the hash in meta.
func Verify(meta Metadata, records [][]string) (bool, error) {
	if meta.Hash == "" {
		return false, ErrNoHashFound
	}

	calculated := HashRecords(records)
	if calculated != meta.Hash {
		return false, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return true, nil
}
