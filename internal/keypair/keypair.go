package keypair

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
)

// Solana CLI 的 keypair 文件是 64 个字节组成的 JSON 数组（私钥种子 32 + 公钥 32）
const keypairLen = 64

// ErrPublicKeyMismatch 后 32 字节与种子推导出的公钥不一致
var ErrPublicKeyMismatch = errors.New("keypair public key does not match secret seed")

// LoadFromFile 读取 Solana CLI 格式的 keypair 文件
func LoadFromFile(path string) (types.Account, error) {
	resolved, err := ExpandHome(path)
	if err != nil {
		return types.Account{}, err
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return types.Account{}, fmt.Errorf("read keypair file %s: %w", resolved, err)
	}
	return Parse(raw)
}

// Parse 解析 keypair JSON 内容
func Parse(raw []byte) (types.Account, error) {
	// 用 []int 接收，避免 json 将 []byte 当作 base64 字符串
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return types.Account{}, fmt.Errorf("decode keypair json: %w", err)
	}
	if len(ints) != keypairLen {
		return types.Account{}, fmt.Errorf("invalid keypair length: got %d, want %d", len(ints), keypairLen)
	}

	buf := make([]byte, keypairLen)
	for i, v := range ints {
		if v < 0 || v > 255 {
			return types.Account{}, fmt.Errorf("invalid keypair byte at %d: %d", i, v)
		}
		buf[i] = byte(v)
	}

	derived := ed25519.NewKeyFromSeed(buf[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], buf[ed25519.SeedSize:]) {
		return types.Account{}, ErrPublicKeyMismatch
	}

	account, err := types.AccountFromBytes(buf)
	if err != nil {
		return types.Account{}, fmt.Errorf("build account from keypair: %w", err)
	}
	return account, nil
}

// Generate 生成新的 keypair（新 mint 账户使用）
func Generate() types.Account {
	return types.NewAccount()
}

// SaveToFile 以 Solana CLI 格式写出 keypair，权限 0600
func SaveToFile(path string, account types.Account) error {
	resolved, err := ExpandHome(path)
	if err != nil {
		return err
	}

	ints := make([]int, 0, keypairLen)
	for _, b := range account.PrivateKey {
		ints = append(ints, int(b))
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return fmt.Errorf("encode keypair json: %w", err)
	}

	if dir := filepath.Dir(resolved); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create keypair dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(resolved, data, 0o600); err != nil {
		return fmt.Errorf("write keypair file %s: %w", resolved, err)
	}
	return nil
}

// ExpandHome 展开路径开头的 ~
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
