package instruction

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-mint-sol/internal/consts"
)

func TestNewCreateTokenData(t *testing.T) {
	data, err := NewCreateTokenData(6)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x06}, data)
}

func TestNewMintData(t *testing.T) {
	data, err := NewMintData(600)
	require.NoError(t, err)
	// 600 = 0x0258，小端序
	assert.Equal(t, []byte{0x01, 0x58, 0x02, 0, 0, 0, 0, 0, 0}, data)

	data, err = NewMintData(^uint64(0))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, data)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    TokenInstruction
		wantErr error
	}{
		{
			name: "create token",
			data: []byte{0x00, 0x09},
			want: TokenInstruction{Enum: SelectorCreateToken, CreateToken: CreateTokenArgs{Decimals: 9}},
		},
		{
			name: "mint",
			data: []byte{0x01, 0x58, 0x02, 0, 0, 0, 0, 0, 0},
			want: TokenInstruction{Enum: SelectorMint, Mint: MintArgs{Amount: 600}},
		},
		{name: "empty", data: nil, wantErr: ErrEmptyData},
		{name: "unknown selector", data: []byte{0x02, 0x00}, wantErr: ErrUnknownInstruction},
		{name: "create token too long", data: []byte{0x00, 0x06, 0x00}, wantErr: ErrInvalidDataLength},
		{name: "mint truncated", data: []byte{0x01, 0x58, 0x02}, wantErr: ErrInvalidDataLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenInstruction_String(t *testing.T) {
	assert.Equal(t, "CreateToken{decimals=6}", TokenInstruction{CreateToken: CreateTokenArgs{Decimals: 6}}.String())
	assert.Equal(t, "Mint{amount=600}", TokenInstruction{Enum: SelectorMint, Mint: MintArgs{Amount: 600}}.String())
	assert.Equal(t, "Unknown{selector=7}", TokenInstruction{Enum: 7}.String())
}

func TestNewCreateTokenInstruction(t *testing.T) {
	programID := consts.DefaultTokenProgramID.ToCommon()
	mint := types.NewAccount().PublicKey
	payer := types.NewAccount().PublicKey

	ix, err := NewCreateTokenInstruction(CreateTokenParam{
		ProgramID: programID,
		Mint:      mint,
		Payer:     payer,
		Decimals:  6,
	})
	require.NoError(t, err)

	assert.Equal(t, programID, ix.ProgramID)
	assert.Equal(t, []byte{0x00, 0x06}, ix.Data)
	assert.Equal(t, []types.AccountMeta{
		{PubKey: mint, IsSigner: true, IsWritable: true},
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: payer, IsSigner: false, IsWritable: true},
		{PubKey: common.SysVarRentPubkey, IsSigner: false, IsWritable: false},
		{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		{PubKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
	}, ix.Accounts)
}

func TestNewMintInstruction(t *testing.T) {
	programID := consts.DefaultTokenProgramID.ToCommon()
	mint := types.NewAccount().PublicKey
	payer := types.NewAccount().PublicKey
	target, err := FindAssociatedTokenAddress(payer, mint)
	require.NoError(t, err)

	ix, err := NewMintInstruction(MintParam{
		ProgramID: programID,
		Mint:      mint,
		Target:    target,
		Payer:     payer,
		Amount:    600,
	})
	require.NoError(t, err)

	assert.Equal(t, []byte{0x01, 0x58, 0x02, 0, 0, 0, 0, 0, 0}, ix.Data)
	assert.Equal(t, []types.AccountMeta{
		{PubKey: mint, IsSigner: true, IsWritable: true},
		{PubKey: target, IsSigner: false, IsWritable: true},
		{PubKey: common.SysVarRentPubkey, IsSigner: false, IsWritable: false},
		{PubKey: payer, IsSigner: true, IsWritable: true},
		{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		{PubKey: common.TokenProgramID, IsSigner: false, IsWritable: false},
		{PubKey: common.SPLAssociatedTokenAccountProgramID, IsSigner: false, IsWritable: false},
	}, ix.Accounts)
}

func TestFindAssociatedTokenAddress_Deterministic(t *testing.T) {
	owner := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey

	a, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	b, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, owner, a)

	other, err := FindAssociatedTokenAddress(types.NewAccount().PublicKey, mint)
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestDescribe(t *testing.T) {
	ix, err := NewCreateTokenInstruction(CreateTokenParam{
		ProgramID: consts.DefaultTokenProgramID.ToCommon(),
		Mint:      types.NewAccount().PublicKey,
		Payer:     types.NewAccount().PublicKey,
		Decimals:  6,
	})
	require.NoError(t, err)

	s := Describe(ix)
	assert.Contains(t, s, "CreateToken{decimals=6}")
	assert.Contains(t, s, "data=0006")
	assert.Contains(t, s, "#5 r   "+common.TokenProgramID.ToBase58())
}
