package keypair

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	account := Generate()
	path := filepath.Join(t.TempDir(), "sub", "mint.json")

	require.NoError(t, SaveToFile(path, account))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, account.PublicKey, loaded.PublicKey)
	assert.Equal(t, account.PrivateKey, loaded.PrivateKey)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "hello"},
		{name: "base64 string", raw: `"AAAA"`},
		{name: "too short", raw: "[1,2,3]"},
		{name: "byte overflow", raw: "[" + strings.Repeat("1,", 63) + "256]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestParse_PublicKeyMismatch(t *testing.T) {
	_, err := Parse([]byte("[" + strings.Repeat("1,", 63) + "1]"))
	assert.ErrorIs(t, err, ErrPublicKeyMismatch)

	// 公钥被篡改一个字节
	account := Generate()
	raw := []byte(account.PrivateKey)
	raw[63] ^= 0xff
	ints := make([]string, 0, len(raw))
	for _, b := range raw {
		ints = append(ints, strconv.Itoa(int(b)))
	}
	_, err = Parse([]byte("[" + strings.Join(ints, ",") + "]"))
	assert.ErrorIs(t, err, ErrPublicKeyMismatch)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/.config/solana/id.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/solana/id.json"), got)

	got, err = ExpandHome("/tmp/id.json")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/id.json", got)

	got, err = ExpandHome("~user/id.json")
	require.NoError(t, err)
	assert.Equal(t, "~user/id.json", got)
}
