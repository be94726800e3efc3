package account

import (
	"crypto/sha1"
	"encoding/binary"
	"strings"
	"unicode/utf16"
)

// isEmailAuth reports whether login matches the email-auth heuristic: it
// contains '@' and the part after '@' contains "gametap" (spec.md §4.3).
// This is preserved exactly as the legacy client/server pair implements it,
// quirks and all — it is a wire-compatibility requirement, not a defect.
func isEmailAuth(login string) bool {
	at := strings.IndexByte(login, '@')
	if at < 0 {
		return false
	}
	return strings.Contains(strings.ToLower(login[at+1:]), "gametap")
}

// utf16le encodes s as UTF-16LE code units, no terminator, matching the
// legacy client's in-memory wchar_t buffer layout.
func utf16le(s string) []byte {
	units := utf16.Encode([]rune(s))
	b := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[i*2:], u)
	}
	return b
}

// HashPassword is the non-email path: SHA-1 of the password bytes alone
// (spec.md §4.3).
func HashPassword(password string) [sha1.Size]byte {
	return sha1.Sum([]byte(password))
}

// BuggyHashPassword is the "buggy" legacy hash used when the login matches
// the email-auth heuristic: SHA-1 over the UTF-16LE concatenation of login
// and password, with no separator and no terminator. The last code unit of
// each half is zeroed before hashing, reproducing the original's truncation
// quirk (it zeroes the final char16_t of both buffers before hashing) —
// without this the digest does not match the real client's.
func BuggyHashPassword(login, password string) [sha1.Size]byte {
	loginBuf := utf16le(login)
	zeroLastCodeUnit(loginBuf)
	passwordBuf := utf16le(password)
	zeroLastCodeUnit(passwordBuf)
	return sha1.Sum(append(loginBuf, passwordBuf...))
}

// zeroLastCodeUnit zeroes the final UTF-16 code unit (2 bytes) of buf, if
// any, in place.
func zeroLastCodeUnit(buf []byte) {
	if len(buf) < 2 {
		return
	}
	buf[len(buf)-2] = 0
	buf[len(buf)-1] = 0
}

// BuggyHashLogin combines a stored BuggyHashPassword digest with the
// server and client challenge nonces the same way the legacy client does:
// SHA-1 over (clientChallenge || serverChallenge || storedHash), each as
// raw little-endian bytes.
func BuggyHashLogin(storedHash [sha1.Size]byte, serverChallenge, clientChallenge uint32) [sha1.Size]byte {
	var buf [4 + 4 + sha1.Size]byte
	binary.LittleEndian.PutUint32(buf[0:4], clientChallenge)
	binary.LittleEndian.PutUint32(buf[4:8], serverChallenge)
	copy(buf[8:], storedHash[:])
	return sha1.Sum(buf[:])
}

// SwapHashWords byte-swaps each of the five 32-bit words of a SHA-1 digest.
// The non-email login path transmits its client-side SHA-1 in big-endian
// words (a historical wire quirk of the original client); the daemon must
// swap before comparing against the little-endian digest it stores.
func SwapHashWords(h [sha1.Size]byte) [sha1.Size]byte {
	var out [sha1.Size]byte
	for w := 0; w < sha1.Size/4; w++ {
		out[w*4+0] = h[w*4+3]
		out[w*4+1] = h[w*4+2]
		out[w*4+2] = h[w*4+1]
		out[w*4+3] = h[w*4+0]
	}
	return out
}
