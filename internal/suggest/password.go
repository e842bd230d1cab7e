package suggest

import (
	"crypto/rand"
	"io"
	"math/big"
	"strconv"

	"github.com/julianstephens/elexam/internal/constants"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var randReader io.Reader = rand.Reader

// DerivePassword computes the initial password for a ledger login:
// (last five characters as a number + 23000) * 15. Logins whose tail is not
// numeric get a random EL_ token instead.
func DerivePassword(login string) string {
	runes := []rune(login)
	if len(runes) > constants.PasswordDigits {
		runes = runes[len(runes)-constants.PasswordDigits:]
	}
	if n, err := strconv.Atoi(string(runes)); err == nil {
		return strconv.Itoa((n + constants.PasswordOffset) * constants.PasswordFactor)
	}
	return constants.RandomPasswordPrefix + randomString(constants.RandomPasswordLength)
}

func randomString(n int) string {
	out := make([]byte, n)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		idx, err := rand.Int(randReader, limit)
		if err != nil {
			panic("crypto/rand unavailable: " + err.Error())
		}
		out[i] = passwordAlphabet[idx.Int64()]
	}
	return string(out)
}
