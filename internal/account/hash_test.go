package account

import (
	"crypto/sha1"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmailAuthDetectsGametapDomain(t *testing.T) {
	cases := []struct {
		login string
		want  bool
	}{
		{"player1", false},
		{"player@example.com", false},
		{"player@GameTap.com", true},
		{"player@sub.gametap.net", true},
		{"@gametap.com", true},
		{"no-at-sign", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, isEmailAuth(c.login), "login=%q", c.login)
	}
}

func TestUtf16leEncodesLittleEndianCodeUnits(t *testing.T) {
	got := utf16le("AB")
	want := []byte{'A', 0, 'B', 0}
	assert.Equal(t, want, got)
}

func TestHashPasswordMatchesPlainSha1(t *testing.T) {
	want := sha1.Sum([]byte("hunter2"))
	assert.Equal(t, want, HashPassword("hunter2"))
}

func TestBuggyHashPasswordZeroesLastCodeUnitOfEachHalf(t *testing.T) {
	login := "user"
	password := "pass"
	loginBuf := utf16le(login)
	loginBuf[len(loginBuf)-2] = 0
	loginBuf[len(loginBuf)-1] = 0
	passwordBuf := utf16le(password)
	passwordBuf[len(passwordBuf)-2] = 0
	passwordBuf[len(passwordBuf)-1] = 0
	want := sha1.Sum(append(loginBuf, passwordBuf...))
	assert.Equal(t, want, BuggyHashPassword(login, password))

	// A plain, untruncated concatenation must NOT match: this is the quirk
	// the hash has to reproduce, not an implementation detail.
	plain := sha1.Sum(append(utf16le(login), utf16le(password)...))
	assert.NotEqual(t, plain, BuggyHashPassword(login, password))
}

func TestBuggyHashPasswordIgnoresLastCharacter(t *testing.T) {
	// The last code unit of each half is zeroed before hashing, so two
	// logins/passwords differing only in their last character must still
	// hash identically -- and differ from one differing elsewhere.
	assert.Equal(t, BuggyHashPassword("userA", "pass"), BuggyHashPassword("userB", "pass"))
	assert.NotEqual(t, BuggyHashPassword("Auser", "pass"), BuggyHashPassword("Buser", "pass"))
}

func TestBuggyHashLoginOrdersChallengesClientFirst(t *testing.T) {
	stored := sha1.Sum([]byte("stored"))
	var buf [4 + 4 + sha1.Size]byte
	binary.LittleEndian.PutUint32(buf[0:4], 0xCAFEBABE)
	binary.LittleEndian.PutUint32(buf[4:8], 0xDEADBEEF)
	copy(buf[8:], stored[:])
	want := sha1.Sum(buf[:])

	got := BuggyHashLogin(stored, 0xDEADBEEF, 0xCAFEBABE)
	assert.Equal(t, want, got)
}

func TestBuggyHashLoginChangesWithEitherChallenge(t *testing.T) {
	stored := sha1.Sum([]byte("stored"))
	base := BuggyHashLogin(stored, 1, 2)
	assert.NotEqual(t, base, BuggyHashLogin(stored, 1, 3))
	assert.NotEqual(t, base, BuggyHashLogin(stored, 4, 2))
}

func TestSwapHashWordsReversesEachFourByteWord(t *testing.T) {
	var h [sha1.Size]byte
	for i := range h {
		h[i] = byte(i)
	}
	got := SwapHashWords(h)
	for w := 0; w < sha1.Size/4; w++ {
		assert.Equal(t, h[w*4+0], got[w*4+3])
		assert.Equal(t, h[w*4+1], got[w*4+2])
		assert.Equal(t, h[w*4+2], got[w*4+1])
		assert.Equal(t, h[w*4+3], got[w*4+0])
	}
}

func TestSwapHashWordsIsSelfInverse(t *testing.T) {
	h := sha1.Sum([]byte("round trip"))
	assert.Equal(t, h, SwapHashWords(SwapHashWords(h)))
}
