package consts

const (
	// LamportsPerSOL 1 SOL = 10^9 lamports
	LamportsPerSOL uint64 = 1_000_000_000

	// DefaultRpcEndpoint 本地 solana-test-validator 默认地址
	DefaultRpcEndpoint = "http://localhost:8899"

	// DefaultPayerKeypair Solana CLI 默认钱包路径
	DefaultPayerKeypair = "~/.config/solana/id.json"
)
