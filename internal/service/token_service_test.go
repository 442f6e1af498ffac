package service

import (
	"context"
	"crypto/ed25519"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	sdktypes "github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-mint-sol/internal/consts"
	"token-mint-sol/internal/instruction"
)

// fakeRpcClient 按脚本返回结果，记录发送的交易
type fakeRpcClient struct {
	mu sync.Mutex

	blockhash    string
	blockhashErr error
	sendErr      error
	statuses     []*rpc.SignatureStatus // 依次返回，用尽后重复最后一个
	statusErr    error
	balance      uint64
	airdropSig   string
	tokenBalance uint64

	sent         []sdktypes.Transaction
	statusCalls  int
	airdropCalls int
}

func newFakeRpcClient() *fakeRpcClient {
	return &fakeRpcClient{
		blockhash: sdktypes.NewAccount().PublicKey.ToBase58(),
	}
}

func (f *fakeRpcClient) GetLatestBlockhash(ctx context.Context) (rpc.GetLatestBlockhashValue, error) {
	if f.blockhashErr != nil {
		return rpc.GetLatestBlockhashValue{}, f.blockhashErr
	}
	return rpc.GetLatestBlockhashValue{Blockhash: f.blockhash, LatestValidBlockHeight: 100}, nil
}

func (f *fakeRpcClient) SendTransaction(ctx context.Context, tx sdktypes.Transaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, tx)
	return base58.Encode(tx.Signatures[0]), nil
}

func (f *fakeRpcClient) GetSignatureStatus(ctx context.Context, signature string) (*rpc.SignatureStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if len(f.statuses) == 0 {
		return nil, nil
	}
	idx := f.statusCalls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return f.statuses[idx], nil
}

func (f *fakeRpcClient) GetBalance(ctx context.Context, base58Addr string) (uint64, error) {
	return f.balance, nil
}

func (f *fakeRpcClient) RequestAirdrop(ctx context.Context, base58Addr string, lamports uint64) (string, error) {
	f.airdropCalls++
	return f.airdropSig, nil
}

func (f *fakeRpcClient) GetTokenAccountBalance(ctx context.Context, base58Addr string) (client.TokenAmount, error) {
	return client.TokenAmount{Amount: f.tokenBalance, Decimals: 6}, nil
}

func commitment(c rpc.Commitment) *rpc.SignatureStatus {
	return &rpc.SignatureStatus{ConfirmationStatus: &c}
}

func newTestService(c RpcClient) *TokenService {
	return NewTokenService(c, TokenServiceOption{
		ProgramID:      consts.DefaultTokenProgramID,
		Commitment:     rpc.CommitmentConfirmed,
		RequestTimeout: time.Second,
		ConfirmTimeout: 200 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	})
}

func TestCreateToken_SignedAndConfirmed(t *testing.T) {
	fake := newFakeRpcClient()
	fake.statuses = []*rpc.SignatureStatus{nil, commitment(rpc.CommitmentProcessed), commitment(rpc.CommitmentConfirmed)}
	svc := newTestService(fake)

	payer := sdktypes.NewAccount()
	mint := sdktypes.NewAccount()

	sig, err := svc.CreateToken(context.Background(), payer, mint, 6)
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	assert.Equal(t, 3, fake.statusCalls)

	tx := fake.sent[0]
	assert.Equal(t, base58.Encode(tx.Signatures[0]), sig.String())

	// payer 为 fee payer，mint 为第二签名者
	require.Len(t, tx.Signatures, 2)
	assert.Equal(t, uint8(2), tx.Message.Header.NumRequireSignatures)
	assert.Equal(t, payer.PublicKey, tx.Message.Accounts[0])
	assert.Equal(t, mint.PublicKey, tx.Message.Accounts[1])
	assert.Equal(t, fake.blockhash, tx.Message.RecentBlockHash)

	msg, err := tx.Message.Serialize()
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(payer.PublicKey.Bytes()), msg, tx.Signatures[0]))
	assert.True(t, ed25519.Verify(ed25519.PublicKey(mint.PublicKey.Bytes()), msg, tx.Signatures[1]))

	require.Len(t, tx.Message.Instructions, 1)
	assert.Equal(t, []byte{0x00, 0x06}, tx.Message.Instructions[0].Data)
	programIdx := tx.Message.Instructions[0].ProgramIDIndex
	assert.Equal(t, consts.DefaultTokenProgramID.ToCommon(), tx.Message.Accounts[programIdx])
}

func TestMintToken_InstructionData(t *testing.T) {
	fake := newFakeRpcClient()
	fake.statuses = []*rpc.SignatureStatus{commitment(rpc.CommitmentFinalized)}
	svc := newTestService(fake)

	payer := sdktypes.NewAccount()
	mint := sdktypes.NewAccount()
	target, err := instruction.FindAssociatedTokenAddress(payer.PublicKey, mint.PublicKey)
	require.NoError(t, err)

	_, err = svc.MintToken(context.Background(), payer, mint, target, 600)
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)

	ix := fake.sent[0].Message.Instructions[0]
	assert.Equal(t, []byte{0x01, 0x58, 0x02, 0, 0, 0, 0, 0, 0}, ix.Data)
	require.Len(t, ix.Accounts, 7)
	assert.Equal(t, target, fake.sent[0].Message.Accounts[ix.Accounts[1]])
}

func TestSendAndConfirm_Errors(t *testing.T) {
	payer := sdktypes.NewAccount()
	mint := sdktypes.NewAccount()
	rpcErr := errors.New("connection refused")

	t.Run("blockhash failure propagated", func(t *testing.T) {
		fake := newFakeRpcClient()
		fake.blockhashErr = rpcErr
		_, err := newTestService(fake).CreateToken(context.Background(), payer, mint, 6)
		assert.ErrorIs(t, err, rpcErr)
		assert.Empty(t, fake.sent)
	})

	t.Run("send failure not retried", func(t *testing.T) {
		fake := newFakeRpcClient()
		fake.sendErr = rpcErr
		sig, err := newTestService(fake).CreateToken(context.Background(), payer, mint, 6)
		assert.ErrorIs(t, err, rpcErr)
		assert.False(t, sig.IsZero(), "失败时仍返回本地签名")
		assert.Equal(t, 0, fake.statusCalls)
	})

	t.Run("on-chain error", func(t *testing.T) {
		fake := newFakeRpcClient()
		fake.statuses = []*rpc.SignatureStatus{{Err: map[string]any{"InstructionError": []any{0, "Custom"}}}}
		_, err := newTestService(fake).CreateToken(context.Background(), payer, mint, 6)
		assert.ErrorIs(t, err, ErrTransactionFailed)
	})

	t.Run("confirm timeout", func(t *testing.T) {
		fake := newFakeRpcClient()
		fake.statuses = []*rpc.SignatureStatus{commitment(rpc.CommitmentProcessed)}
		_, err := newTestService(fake).CreateToken(context.Background(), payer, mint, 6)
		assert.ErrorIs(t, err, ErrConfirmTimeout)
	})

	t.Run("status query errors wait until timeout", func(t *testing.T) {
		fake := newFakeRpcClient()
		fake.statusErr = rpcErr
		_, err := newTestService(fake).CreateToken(context.Background(), payer, mint, 6)
		assert.ErrorIs(t, err, ErrConfirmTimeout)
		assert.Greater(t, fake.statusCalls, 1)
	})

	t.Run("cancelled context", func(t *testing.T) {
		fake := newFakeRpcClient()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestService(fake).CreateToken(ctx, payer, mint, 6)
		assert.Error(t, err)
	})
}

func TestBuildTransaction_NoSigners(t *testing.T) {
	_, err := newTestService(newFakeRpcClient()).BuildTransaction(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSigners)
}

func TestCommitmentReached(t *testing.T) {
	assert.True(t, commitmentReached(rpc.CommitmentFinalized, rpc.CommitmentConfirmed))
	assert.True(t, commitmentReached(rpc.CommitmentConfirmed, rpc.CommitmentConfirmed))
	assert.False(t, commitmentReached(rpc.CommitmentProcessed, rpc.CommitmentConfirmed))
	assert.False(t, commitmentReached(rpc.Commitment(""), rpc.CommitmentProcessed))
}

func TestEnsureFunded(t *testing.T) {
	payer := sdktypes.NewAccount().PublicKey

	t.Run("enough balance", func(t *testing.T) {
		fake := newFakeRpcClient()
		fake.balance = 5 * consts.LamportsPerSOL
		got, err := newTestService(fake).EnsureFunded(context.Background(), payer, consts.LamportsPerSOL, consts.LamportsPerSOL)
		require.NoError(t, err)
		assert.Equal(t, 5*consts.LamportsPerSOL, got)
		assert.Equal(t, 0, fake.airdropCalls)
	})

	t.Run("airdrop when low", func(t *testing.T) {
		fake := newFakeRpcClient()
		fake.airdropSig = "airdrop-sig"
		fake.statuses = []*rpc.SignatureStatus{commitment(rpc.CommitmentConfirmed)}
		got, err := newTestService(fake).EnsureFunded(context.Background(), payer, consts.LamportsPerSOL, 2*consts.LamportsPerSOL)
		require.NoError(t, err)
		assert.Equal(t, 2*consts.LamportsPerSOL, got)
		assert.Equal(t, 1, fake.airdropCalls)
	})

	t.Run("no airdrop configured", func(t *testing.T) {
		fake := newFakeRpcClient()
		got, err := newTestService(fake).EnsureFunded(context.Background(), payer, consts.LamportsPerSOL, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), got)
		assert.Equal(t, 0, fake.airdropCalls)
	})
}

func TestTokenBalance(t *testing.T) {
	fake := newFakeRpcClient()
	fake.tokenBalance = 600
	got, err := newTestService(fake).TokenBalance(context.Background(), common.PublicKey{})
	require.NoError(t, err)
	assert.Equal(t, uint64(600), got)
}
