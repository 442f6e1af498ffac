package instruction

import (
	"errors"
	"fmt"

	"github.com/near/borsh-go"
)

// Selector 代币程序指令的判别值（borsh enum 的第一个字节）
type Selector = borsh.Enum

const (
	SelectorCreateToken Selector = 0
	SelectorMint        Selector = 1
)

const (
	createTokenDataLen = 1 + 1 // selector + decimals(u8)
	mintDataLen        = 1 + 8 // selector + amount(u64 LE)
)

var (
	ErrEmptyData          = errors.New("instruction data is empty")
	ErrUnknownInstruction = errors.New("unknown token instruction selector")
	ErrInvalidDataLength  = errors.New("invalid instruction data length")
)

type CreateTokenArgs struct {
	Decimals uint8
}

type MintArgs struct {
	Amount uint64
}

// TokenInstruction 与链上程序约定的指令枚举：
//
//	0 - CreateToken { decimals: u8 }
//	1 - Mint        { amount: u64 }
//
// 只序列化 Enum 选中的那个变体，字段顺序即变体顺序，不可调整。
type TokenInstruction struct {
	Enum        Selector `borsh_enum:"true"`
	CreateToken CreateTokenArgs
	Mint        MintArgs
}

func (ti TokenInstruction) String() string {
	switch ti.Enum {
	case SelectorCreateToken:
		return fmt.Sprintf("CreateToken{decimals=%d}", ti.CreateToken.Decimals)
	case SelectorMint:
		return fmt.Sprintf("Mint{amount=%d}", ti.Mint.Amount)
	default:
		return fmt.Sprintf("Unknown{selector=%d}", ti.Enum)
	}
}

// NewCreateTokenData 编码 CreateToken 指令数据
func NewCreateTokenData(decimals uint8) ([]byte, error) {
	return encode(TokenInstruction{
		Enum:        SelectorCreateToken,
		CreateToken: CreateTokenArgs{Decimals: decimals},
	})
}

// NewMintData 编码 Mint 指令数据
func NewMintData(amount uint64) ([]byte, error) {
	return encode(TokenInstruction{
		Enum: SelectorMint,
		Mint: MintArgs{Amount: amount},
	})
}

func encode(ti TokenInstruction) ([]byte, error) {
	data, err := borsh.Serialize(ti)
	if err != nil {
		return nil, fmt.Errorf("borsh serialize %s: %w", ti, err)
	}
	return data, nil
}

// Decode 解析指令数据，先按 selector 校验长度再交给 borsh
func Decode(data []byte) (TokenInstruction, error) {
	var ti TokenInstruction
	if len(data) == 0 {
		return ti, ErrEmptyData
	}

	var want int
	switch Selector(data[0]) {
	case SelectorCreateToken:
		want = createTokenDataLen
	case SelectorMint:
		want = mintDataLen
	default:
		return ti, fmt.Errorf("%w: %d", ErrUnknownInstruction, data[0])
	}
	if len(data) != want {
		return ti, fmt.Errorf("%w: selector=%d got=%d want=%d", ErrInvalidDataLength, data[0], len(data), want)
	}

	if err := borsh.Deserialize(&ti, data); err != nil {
		return ti, fmt.Errorf("borsh deserialize: %w", err)
	}
	return ti, nil
}
