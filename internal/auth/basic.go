package auth

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Basic authenticates the credential carried by a "Basic <token>"
// Authorization header against a list of bcrypt hashes loaded from a
// file, one per line. A request is allowed if the credential verifies
// against any hash on the list.
//
// The credential is derived from the token following "Basic ": if the
// token base64-decodes to valid UTF-8 containing a ':', the password —
// the substring after the first ':' — is what gets checked; otherwise
// the raw token itself is compared as-is.
//
// The reference this is grounded on checked only the first hash in the
// list and ignored the rest — a single allowed credential worked, but a
// deployment with more than one never accepted the second. Basic checks
// every hash and allows the request if any one matches.
type Basic struct {
	hashes []string
}

// LoadBasic reads newline-separated bcrypt hashes from path.
func LoadBasic(path string) (*Basic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("auth: open credentials file: %w", err)
	}
	defer f.Close()

	var hashes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		hashes = append(hashes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("auth: read credentials file: %w", err)
	}
	if len(hashes) == 0 {
		return nil, fmt.Errorf("auth: credentials file %q contains no hashes", path)
	}

	return &Basic{hashes: hashes}, nil
}

// Authenticate extracts the token following "Basic" in header, derives
// the credential to check per the decode/extract rule above, and
// verifies it against every configured hash.
func (b *Basic) Authenticate(header string) bool {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return false
	}
	credential := credentialFromToken(fields[1])

	for _, hash := range b.hashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)) == nil {
			return true
		}
	}
	return false
}

// credentialFromToken attempts to base64-decode token as a standard
// "user:password" basic-auth pair; if that succeeds and the decoded text
// is valid UTF-8 containing a ':', the substring after the first ':' is
// the credential. Otherwise the token is treated as the credential
// verbatim.
func credentialFromToken(token string) string {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil || !utf8.Valid(decoded) {
		return token
	}
	if idx := strings.IndexByte(string(decoded), ':'); idx >= 0 {
		return string(decoded[idx+1:])
	}
	return token
}
