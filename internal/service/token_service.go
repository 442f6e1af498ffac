package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	sdktypes "github.com/blocto/solana-go-sdk/types"

	"token-mint-sol/internal/instruction"
	"token-mint-sol/internal/types"
	"token-mint-sol/pkg/logger"
)

var (
	ErrConfirmTimeout    = errors.New("transaction confirmation timeout")
	ErrTransactionFailed = errors.New("transaction failed on chain")
	ErrNoSigners         = errors.New("no signers")
)

// RpcClient 是 TokenService 依赖的 RPC 能力子集，*client.Client 满足该接口
type RpcClient interface {
	GetLatestBlockhash(ctx context.Context) (rpc.GetLatestBlockhashValue, error)
	SendTransaction(ctx context.Context, tx sdktypes.Transaction) (string, error)
	GetSignatureStatus(ctx context.Context, signature string) (*rpc.SignatureStatus, error)
	GetBalance(ctx context.Context, base58Addr string) (uint64, error)
	RequestAirdrop(ctx context.Context, base58Addr string, lamports uint64) (string, error)
	GetTokenAccountBalance(ctx context.Context, base58Addr string) (client.TokenAmount, error)
}

var _ RpcClient = (*client.Client)(nil)

type TokenServiceOption struct {
	ProgramID      types.Pubkey
	Commitment     rpc.Commitment
	RequestTimeout time.Duration // 单次 RPC 超时
	ConfirmTimeout time.Duration // 等待确认的总超时
	PollInterval   time.Duration // 签名状态轮询间隔
}

// TokenService 负责构造代币程序指令、签名、发送并等待确认
type TokenService struct {
	client RpcClient
	opt    TokenServiceOption
}

func NewTokenService(c RpcClient, opt TokenServiceOption) *TokenService {
	if opt.Commitment == "" {
		opt.Commitment = rpc.CommitmentConfirmed
	}
	if opt.RequestTimeout <= 0 {
		opt.RequestTimeout = 10 * time.Second
	}
	if opt.ConfirmTimeout <= 0 {
		opt.ConfirmTimeout = 60 * time.Second
	}
	if opt.PollInterval <= 0 {
		opt.PollInterval = 500 * time.Millisecond
	}
	return &TokenService{client: c, opt: opt}
}

func (s *TokenService) ProgramID() types.Pubkey {
	return s.opt.ProgramID
}

// CreateToken 创建新的 mint，mint 与 payer 同时签名
func (s *TokenService) CreateToken(ctx context.Context, payer, mint sdktypes.Account, decimals uint8) (types.Signature, error) {
	ix, err := instruction.NewCreateTokenInstruction(instruction.CreateTokenParam{
		ProgramID: s.opt.ProgramID.ToCommon(),
		Mint:      mint.PublicKey,
		Payer:     payer.PublicKey,
		Decimals:  decimals,
	})
	if err != nil {
		return types.Signature{}, err
	}

	sig, err := s.SendAndConfirm(ctx, []sdktypes.Instruction{ix}, payer, mint)
	if err != nil {
		return sig, fmt.Errorf("create token mint=%s: %w", mint.PublicKey.ToBase58(), err)
	}
	logger.Infof("[TokenService] CreateToken 成功: mint=%s decimals=%d sig=%s", mint.PublicKey.ToBase58(), decimals, sig)
	return sig, nil
}

// MintToken 向 target（ATA）铸造 amount 个最小单位
func (s *TokenService) MintToken(ctx context.Context, payer, mint sdktypes.Account, target common.PublicKey, amount uint64) (types.Signature, error) {
	ix, err := instruction.NewMintInstruction(instruction.MintParam{
		ProgramID: s.opt.ProgramID.ToCommon(),
		Mint:      mint.PublicKey,
		Target:    target,
		Payer:     payer.PublicKey,
		Amount:    amount,
	})
	if err != nil {
		return types.Signature{}, err
	}

	sig, err := s.SendAndConfirm(ctx, []sdktypes.Instruction{ix}, payer, mint)
	if err != nil {
		return sig, fmt.Errorf("mint token mint=%s target=%s: %w", mint.PublicKey.ToBase58(), target.ToBase58(), err)
	}
	logger.Infof("[TokenService] MintToken 成功: mint=%s target=%s amount=%d sig=%s",
		mint.PublicKey.ToBase58(), target.ToBase58(), amount, sig)
	return sig, nil
}

// BuildTransaction 获取最新 blockhash 并签名，feePayer 为 signers[0]
func (s *TokenService) BuildTransaction(ctx context.Context, ixs []sdktypes.Instruction, signers ...sdktypes.Account) (sdktypes.Transaction, error) {
	if len(signers) == 0 {
		return sdktypes.Transaction{}, ErrNoSigners
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.opt.RequestTimeout)
	defer cancel()

	latest, err := s.client.GetLatestBlockhash(reqCtx)
	if err != nil {
		return sdktypes.Transaction{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := sdktypes.NewTransaction(sdktypes.NewTransactionParam{
		Signers: signers,
		Message: sdktypes.NewMessage(sdktypes.NewMessageParam{
			FeePayer:        signers[0].PublicKey,
			RecentBlockhash: latest.Blockhash,
			Instructions:    ixs,
		}),
	})
	if err != nil {
		return sdktypes.Transaction{}, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

// SendAndConfirm 构造、签名并发送交易，随后轮询直到达到配置的确认级别。
// 发送只做一次，失败原样返回给调用方。
func (s *TokenService) SendAndConfirm(ctx context.Context, ixs []sdktypes.Instruction, payer sdktypes.Account, others ...sdktypes.Account) (types.Signature, error) {
	signers := append([]sdktypes.Account{payer}, others...)
	tx, err := s.BuildTransaction(ctx, ixs, signers...)
	if err != nil {
		return types.Signature{}, err
	}

	// 签名在发送前已确定，失败时也能带出交易哈希便于排查
	sig, err := types.SignatureFromBytes(tx.Signatures[0])
	if err != nil {
		return types.Signature{}, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.opt.RequestTimeout)
	txHash, err := s.client.SendTransaction(reqCtx, tx)
	cancel()
	if err != nil {
		return sig, fmt.Errorf("send transaction %s: %w", sig, err)
	}
	if txHash != sig.String() {
		logger.Warnf("[TokenService] 节点返回的签名与本地不一致: local=%s remote=%s", sig, txHash)
	}

	if err := s.WaitForConfirmation(ctx, sig.String()); err != nil {
		return sig, err
	}
	return sig, nil
}

// WaitForConfirmation 轮询签名状态直到达到确认级别、链上失败或超时
func (s *TokenService) WaitForConfirmation(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, s.opt.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(s.opt.PollInterval)
	defer ticker.Stop()

	start := time.Now()
	for {
		done, err := s.checkSignature(ctx, signature)
		if err != nil {
			return err
		}
		if done {
			logger.Debugf("[TokenService] 交易已确认: sig=%s commitment=%s 耗时=%v", signature, s.opt.Commitment, time.Since(start))
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: sig=%s after %v", ErrConfirmTimeout, signature, s.opt.ConfirmTimeout)
			}
			return fmt.Errorf("wait confirmation %s: %w", signature, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *TokenService) checkSignature(ctx context.Context, signature string) (bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.opt.RequestTimeout)
	defer cancel()

	status, err := s.client.GetSignatureStatus(reqCtx, signature)
	if err != nil {
		// 轮询期间的单次查询失败不终止等待，由总超时兜底
		logger.Warnf("[TokenService] 查询签名状态失败: sig=%s err=%v", signature, err)
		return false, nil
	}
	if status == nil {
		return false, nil
	}
	if status.Err != nil {
		return false, fmt.Errorf("%w: sig=%s err=%v", ErrTransactionFailed, signature, status.Err)
	}
	if status.ConfirmationStatus == nil {
		return false, nil
	}
	return commitmentReached(*status.ConfirmationStatus, s.opt.Commitment), nil
}

func commitmentLevel(c rpc.Commitment) int {
	switch c {
	case rpc.CommitmentProcessed:
		return 1
	case rpc.CommitmentConfirmed:
		return 2
	case rpc.CommitmentFinalized:
		return 3
	default:
		return 0
	}
}

func commitmentReached(got, want rpc.Commitment) bool {
	return commitmentLevel(got) >= commitmentLevel(want) && commitmentLevel(got) > 0
}

// EnsureFunded payer 余额低于 minLamports 时申请空投（仅本地/测试网可用），airdropLamports 为 0 时只做检查
func (s *TokenService) EnsureFunded(ctx context.Context, payer common.PublicKey, minLamports, airdropLamports uint64) (uint64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.opt.RequestTimeout)
	balance, err := s.client.GetBalance(reqCtx, payer.ToBase58())
	cancel()
	if err != nil {
		return 0, fmt.Errorf("get balance %s: %w", payer.ToBase58(), err)
	}
	if balance >= minLamports || airdropLamports == 0 {
		return balance, nil
	}

	logger.Infof("[TokenService] payer 余额不足，申请空投: payer=%s balance=%d airdrop=%d", payer.ToBase58(), balance, airdropLamports)
	reqCtx, cancel = context.WithTimeout(ctx, s.opt.RequestTimeout)
	sig, err := s.client.RequestAirdrop(reqCtx, payer.ToBase58(), airdropLamports)
	cancel()
	if err != nil {
		return balance, fmt.Errorf("request airdrop %s: %w", payer.ToBase58(), err)
	}
	if err := s.WaitForConfirmation(ctx, sig); err != nil {
		return balance, fmt.Errorf("airdrop %s: %w", sig, err)
	}
	return balance + airdropLamports, nil
}

// TokenBalance 读取 token 账户余额（最小单位）
func (s *TokenService) TokenBalance(ctx context.Context, account common.PublicKey) (uint64, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.opt.RequestTimeout)
	defer cancel()

	amount, err := s.client.GetTokenAccountBalance(reqCtx, account.ToBase58())
	if err != nil {
		return 0, fmt.Errorf("get token account balance %s: %w", account.ToBase58(), err)
	}
	return amount.Amount, nil
}
