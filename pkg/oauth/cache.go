package oauth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

const (
	// cacheFileMode keeps the cache readable by the owner only; the file
	// holds the refresh token.
	cacheFileMode = 0600

	// cacheDirMode protects any directory created for the cache file.
	cacheDirMode = 0700
)

// WriteCache serializes the full token, refresh token included, to path.
// The file is truncated and rewritten in one step, never appended to, and
// missing parent directories are created.
func (t *Token) WriteCache(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return &CacheError{Path: path, Op: "encode", Err: err}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, cacheDirMode); err != nil {
			return &CacheError{Path: path, Op: "mkdir", Err: err}
		}
	}
	if err := os.WriteFile(path, data, cacheFileMode); err != nil {
		return &CacheError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// TokenFromCache loads a previously cached token. The load is best-effort:
// a missing file, an unreadable file, or malformed JSON all yield nil,
// never an error. Starting without a cached token is a normal condition
// that callers handle by running an authorization flow.
func TokenFromCache(path string) *Token {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil
	}
	return &t
}

// RemoveCache deletes the cache file. A file that is already gone is not
// an error.
func RemoveCache(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &CacheError{Path: path, Op: "remove", Err: err}
	}
	return nil
}
