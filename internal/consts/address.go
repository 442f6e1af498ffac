package consts

import "token-mint-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	//  Programs
	SystemProgramStr          = "11111111111111111111111111111111"
	TokenProgramStr           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramStr = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"

	// Sysvars
	RentSysvarStr = "SysvarRent111111111111111111111111111111111"

	// 本地测试验证器上部署的代币程序（CreateToken / Mint）
	DefaultTokenProgramIDStr = "8nPrchpGf8Jt4FCZy37BvBrMkU8EMAr9S3vKzTEnqoBm"
)

var (
	// Programs
	SystemProgram          = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram           = types.PubkeyFromBase58(TokenProgramStr)
	AssociatedTokenProgram = types.PubkeyFromBase58(AssociatedTokenProgramStr)

	RentSysvar = types.PubkeyFromBase58(RentSysvarStr)

	DefaultTokenProgramID = types.PubkeyFromBase58(DefaultTokenProgramIDStr)
)
