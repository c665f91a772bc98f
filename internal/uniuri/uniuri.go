// Package uniuri generates random opaque strings for refresh tokens and
// similar secrets.
package uniuri

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// TokenLen gives ~238 bits of entropy with Chars.
const TokenLen = 40

// Chars are the characters of a generated string. Its length divides 256
// into whole buckets after rejecting bytes >= maxByte.
var Chars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// ErrCharset is returned for a charset with fewer than 2 or more than 256 characters.
var ErrCharset = errors.New("uniuri: charset must have between 2 and 256 characters")

// Token returns a random string of TokenLen characters.
func Token() (string, error) {
	return NewLenChars(TokenLen, Chars)
}

// NewLenChars returns a random string of length characters from chars.
// Bytes that would bias the modulo are skipped.
func NewLenChars(length int, chars []byte) (string, error) {
	if length <= 0 {
		return "", nil
	}

	clen := len(chars)
	if clen < 2 || clen > 256 {
		return "", ErrCharset
	}

	maxByte := 256 - (256 % clen)
	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("uniuri: read random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}

			out = append(out, chars[int(b)%clen])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
