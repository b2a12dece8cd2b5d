package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	req := require.New(t)
	password := "Tr0p-Sûr-Pour-Être-Deviné!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("NotThatOne123!", hash)
	req.NoError(err)
	req.False(match)
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("SamePassword123!")
	req.NoError(err)
	second, err := HashPassword("SamePassword123!")
	req.NoError(err)

	// Same password, fresh salt, different record
	req.NotEqual(first, second)
}

func TestComparePassword_RejectsForeignHashes(t *testing.T) {
	req := require.New(t)

	for _, encoded := range []string{
		"",
		"plain-md5-leftover",
		"$argon2id$v=19$m=65536,t=3,p=2$missing-key-part",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
	} {
		_, err := ComparePassword("whatever", encoded)
		req.Error(err, "hash %q should not be comparable", encoded)
	}
}

func TestValidateRegister(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		request RegisterRequest
		wantErr bool
	}{
		{"valid request", RegisterRequest{"alice@council.dev", "ComplexPass123!"}, false},
		{"broken email", RegisterRequest{"not-an-email", "ComplexPass123!"}, true},
		{"too short", RegisterRequest{"alice@council.dev", "Sh0rt!"}, true},
		{"no digit", RegisterRequest{"alice@council.dev", "NoDigitsInHere!"}, true},
		{"no special character", RegisterRequest{"alice@council.dev", "NoSpecialChar123"}, true},
		{"no uppercase", RegisterRequest{"alice@council.dev", "nouppercase123!"}, true},
		{"no lowercase", RegisterRequest{"alice@council.dev", "NOLOWERCASE123!"}, true},
		{"over the 72 character cap", RegisterRequest{"alice@council.dev", strings.Repeat("Aa1!", 19)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.request)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
