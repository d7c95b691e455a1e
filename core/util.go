package core

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var objectIDRegex = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NewID returns a 24 hex chars identifier: 4 bytes of unix seconds followed by 8 random bytes.
func NewID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:4], uint32(NowFunc().Unix()))
	if _, err := rand.Read(b[4:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// IsObjectID reports whether id is a 24 hex chars identifier.
func IsObjectID(id string) bool {
	return objectIDRegex.MatchString(id)
}

// UniqueStrings returns the cleaned, non-empty values of ss without duplicates, preserving first-seen order.
func UniqueStrings(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		s = CleanString(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// RemoveStrings returns ss without any of the values in rm.
func RemoveStrings(ss []string, rm ...string) []string {
	if len(rm) == 0 {
		return ss
	}
	drop := make(map[string]struct{}, len(rm))
	for _, s := range rm {
		drop[s] = struct{}{}
	}
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if _, ok := drop[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// ContainsString reports whether s is in ss.
func ContainsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

var NowFunc = func() time.Time { return time.Now().UTC() } // mockable

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run, so walk up from there.
// Falls back to the working directory when no go.mod is found (e.g. deployed binaries).
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if fi, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil && !fi.IsDir() {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
