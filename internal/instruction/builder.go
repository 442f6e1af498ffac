package instruction

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"token-mint-sol/internal/consts"
)

// CreateTokenParam CreateToken 指令所需账户与参数
type CreateTokenParam struct {
	ProgramID common.PublicKey
	Mint      common.PublicKey // 新 mint 账户，需签名
	Payer     common.PublicKey // 付费账户，同时作为 mint authority
	Decimals  uint8
}

// MintParam Mint 指令所需账户与参数
type MintParam struct {
	ProgramID common.PublicKey
	Mint      common.PublicKey
	Target    common.PublicKey // 接收方 ATA，由程序按需创建
	Payer     common.PublicKey
	Amount    uint64
}

// NewCreateTokenInstruction 构造 CreateToken 指令
//
// 账户布局：
//
// #0 - Mint 账户（writable, signer）
// #1 - Payer（writable, signer，付租金）
// #2 - Mint Authority（即 payer，writable）
// #3 - Rent Sysvar
// #4 - System Program
// #5 - Token Program
func NewCreateTokenInstruction(param CreateTokenParam) (types.Instruction, error) {
	data, err := NewCreateTokenData(param.Decimals)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: param.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Mint, IsSigner: true, IsWritable: true},
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: param.Payer, IsSigner: false, IsWritable: true},
			{PubKey: consts.RentSysvar.ToCommon(), IsSigner: false, IsWritable: false},
			{PubKey: consts.SystemProgram.ToCommon(), IsSigner: false, IsWritable: false},
			{PubKey: consts.TokenProgram.ToCommon(), IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

// NewMintInstruction 构造 Mint 指令
//
// 账户布局：
//
// #0 - Mint 账户（writable, signer）
// #1 - 目标 ATA（writable）
// #2 - Rent Sysvar
// #3 - Payer（writable, signer）
// #4 - System Program
// #5 - Token Program
// #6 - Associated Token Program
func NewMintInstruction(param MintParam) (types.Instruction, error) {
	data, err := NewMintData(param.Amount)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: param.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: param.Mint, IsSigner: true, IsWritable: true},
			{PubKey: param.Target, IsSigner: false, IsWritable: true},
			{PubKey: consts.RentSysvar.ToCommon(), IsSigner: false, IsWritable: false},
			{PubKey: param.Payer, IsSigner: true, IsWritable: true},
			{PubKey: consts.SystemProgram.ToCommon(), IsSigner: false, IsWritable: false},
			{PubKey: consts.TokenProgram.ToCommon(), IsSigner: false, IsWritable: false},
			{PubKey: consts.AssociatedTokenProgram.ToCommon(), IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

// FindAssociatedTokenAddress 推导 owner 持有 mint 的 ATA 地址
func FindAssociatedTokenAddress(owner, mint common.PublicKey) (common.PublicKey, error) {
	ata, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("derive ATA owner=%s mint=%s: %w", owner.ToBase58(), mint.ToBase58(), err)
	}
	return ata, nil
}

// Describe 输出指令的可读形式，用于 dry-run 与日志
func Describe(ix types.Instruction) string {
	decoded, err := Decode(ix.Data)
	name := decoded.String()
	if err != nil {
		name = fmt.Sprintf("Invalid(%v)", err)
	}
	s := fmt.Sprintf("program=%s ix=%s data=%x", ix.ProgramID.ToBase58(), name, ix.Data)
	for i, acc := range ix.Accounts {
		flags := "r"
		if acc.IsWritable {
			flags = "w"
		}
		if acc.IsSigner {
			flags += "s"
		}
		s += fmt.Sprintf("\n  #%d %-3s %s", i, flags, acc.PubKey.ToBase58())
	}
	return s
}
