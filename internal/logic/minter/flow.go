package minter

import (
	"context"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	sdktypes "github.com/blocto/solana-go-sdk/types"

	"token-mint-sol/internal/instruction"
	"token-mint-sol/internal/keypair"
	"token-mint-sol/internal/mq"
	"token-mint-sol/internal/progress"
	"token-mint-sol/internal/types"
	"token-mint-sol/pkg/logger"
)

// TokenOps 链上操作，由 service.TokenService 实现
type TokenOps interface {
	ProgramID() types.Pubkey
	CreateToken(ctx context.Context, payer, mint sdktypes.Account, decimals uint8) (types.Signature, error)
	MintToken(ctx context.Context, payer, mint sdktypes.Account, target common.PublicKey, amount uint64) (types.Signature, error)
	EnsureFunded(ctx context.Context, payer common.PublicKey, minLamports, airdropLamports uint64) (uint64, error)
	TokenBalance(ctx context.Context, account common.PublicKey) (uint64, error)
}

// ProgressRecorder 进度记录，由 progress.RedisProgressStore 实现
type ProgressRecorder interface {
	MarkStatus(ctx context.Context, rec *progress.MintRecord) error
}

// EventPublisher 事件发布，由 mq.Publisher 实现
type EventPublisher interface {
	Publish(ctx context.Context, events ...*mq.MintEvent) error
}

type FlowOption struct {
	PayerKeypair     string
	MintKeypairOut   string
	Decimals         uint8
	Amount           uint64
	MinPayerLamports uint64
	AirdropLamports  uint64
}

// Flow 串行执行：CreateToken -> 推导 ATA -> Mint -> 校验余额
type Flow struct {
	ops       TokenOps
	recorder  ProgressRecorder // 可为 nil
	publisher EventPublisher   // 可为 nil
	opt       FlowOption
	now       func() time.Time
}

func NewFlow(ops TokenOps, recorder ProgressRecorder, publisher EventPublisher, opt FlowOption) *Flow {
	return &Flow{
		ops:       ops,
		recorder:  recorder,
		publisher: publisher,
		opt:       opt,
		now:       time.Now,
	}
}

// Run 执行完整发行流程。任一链上步骤失败即返回，错误保留原始原因；
// 已完成的步骤仍体现在返回的 Report 中。
func (f *Flow) Run(ctx context.Context) (*Report, error) {
	payer, err := keypair.LoadFromFile(f.opt.PayerKeypair)
	if err != nil {
		return nil, fmt.Errorf("load payer keypair: %w", err)
	}
	mint, err := f.newMint()
	if err != nil {
		return nil, err
	}

	report := &Report{
		ProgramID: f.ops.ProgramID().String(),
		Payer:     payer.PublicKey.ToBase58(),
		Mint:      mint.PublicKey.ToBase58(),
		Decimals:  f.opt.Decimals,
		Amount:    f.opt.Amount,
		StartedAt: f.now().UTC().Format(time.RFC3339),
	}
	logger.Infof("[Minter] Mint: %s", report.Mint)

	f.record(ctx, &progress.MintRecord{
		Mint:     report.Mint,
		Payer:    report.Payer,
		Status:   progress.MintPending,
		Decimals: f.opt.Decimals,
		Amount:   f.opt.Amount,
	})

	// 1. 余额检查 / 空投（可选）
	if f.opt.MinPayerLamports > 0 {
		balance, err := f.ops.EnsureFunded(ctx, payer.PublicKey, f.opt.MinPayerLamports, f.opt.AirdropLamports)
		if err != nil {
			return report, f.fail(ctx, report, err)
		}
		report.PayerLamports = balance
	}

	// 2. CreateToken
	createSig, err := f.ops.CreateToken(ctx, payer, mint, f.opt.Decimals)
	if err != nil {
		return report, f.fail(ctx, report, err)
	}
	report.CreateSignature = createSig.String()
	logger.Infof("[Minter] create token sign: %s", report.CreateSignature)
	f.record(ctx, &progress.MintRecord{Mint: report.Mint, Status: progress.MintCreated, CreateSig: report.CreateSignature})
	f.publish(ctx, &mq.MintEvent{
		Type:      mq.EventTokenCreated,
		ProgramID: f.ops.ProgramID(),
		Mint:      types.PubkeyFromCommon(mint.PublicKey),
		Payer:     types.PubkeyFromCommon(payer.PublicKey),
		Decimals:  f.opt.Decimals,
		Signature: createSig,
		Timestamp: f.now().Unix(),
	})

	// 3. 推导接收方 ATA
	target, err := instruction.FindAssociatedTokenAddress(payer.PublicKey, mint.PublicKey)
	if err != nil {
		return report, f.fail(ctx, report, err)
	}
	report.Target = target.ToBase58()
	logger.Infof("[Minter] target: %s", report.Target)

	// 4. Mint
	mintSig, err := f.ops.MintToken(ctx, payer, mint, target, f.opt.Amount)
	if err != nil {
		return report, f.fail(ctx, report, err)
	}
	report.MintSignature = mintSig.String()
	logger.Infof("[Minter] mint token sign: %s", report.MintSignature)
	f.record(ctx, &progress.MintRecord{Mint: report.Mint, Target: report.Target, Status: progress.MintMinted, MintSig: report.MintSignature})
	f.publish(ctx, &mq.MintEvent{
		Type:      mq.EventTokenMinted,
		ProgramID: f.ops.ProgramID(),
		Mint:      types.PubkeyFromCommon(mint.PublicKey),
		Payer:     types.PubkeyFromCommon(payer.PublicKey),
		Target:    types.PubkeyFromCommon(target),
		Decimals:  f.opt.Decimals,
		Amount:    f.opt.Amount,
		Signature: mintSig,
		Timestamp: f.now().Unix(),
	})

	// 5. 校验余额，仅告警不影响结果
	balance, err := f.ops.TokenBalance(ctx, target)
	if err != nil {
		logger.Warnf("[Minter] 读取 ATA 余额失败: target=%s err=%v", report.Target, err)
	} else {
		report.TargetBalance = &balance
		if balance != f.opt.Amount {
			logger.Warnf("[Minter] ATA 余额与铸造数量不一致: target=%s balance=%d amount=%d", report.Target, balance, f.opt.Amount)
		}
	}

	report.Status = progress.MintMinted.String()
	return report, nil
}

// DryRun 只构造两条指令，不访问 RPC
func (f *Flow) DryRun() (*Report, error) {
	payer, err := keypair.LoadFromFile(f.opt.PayerKeypair)
	if err != nil {
		return nil, fmt.Errorf("load payer keypair: %w", err)
	}
	mint := keypair.Generate()

	target, err := instruction.FindAssociatedTokenAddress(payer.PublicKey, mint.PublicKey)
	if err != nil {
		return nil, err
	}

	programID := f.ops.ProgramID().ToCommon()
	createIx, err := instruction.NewCreateTokenInstruction(instruction.CreateTokenParam{
		ProgramID: programID,
		Mint:      mint.PublicKey,
		Payer:     payer.PublicKey,
		Decimals:  f.opt.Decimals,
	})
	if err != nil {
		return nil, err
	}
	mintIx, err := instruction.NewMintInstruction(instruction.MintParam{
		ProgramID: programID,
		Mint:      mint.PublicKey,
		Target:    target,
		Payer:     payer.PublicKey,
		Amount:    f.opt.Amount,
	})
	if err != nil {
		return nil, err
	}

	return &Report{
		ProgramID: programID.ToBase58(),
		Payer:     payer.PublicKey.ToBase58(),
		Mint:      mint.PublicKey.ToBase58(),
		Target:    target.ToBase58(),
		Decimals:  f.opt.Decimals,
		Amount:    f.opt.Amount,
		StartedAt: f.now().UTC().Format(time.RFC3339),
		Status:    "dry_run",
		Instructions: []InstructionDump{
			dumpInstruction(createIx),
			dumpInstruction(mintIx),
		},
	}, nil
}

func (f *Flow) newMint() (sdktypes.Account, error) {
	mint := keypair.Generate()
	if f.opt.MintKeypairOut == "" {
		return mint, nil
	}
	if err := keypair.SaveToFile(f.opt.MintKeypairOut, mint); err != nil {
		return sdktypes.Account{}, fmt.Errorf("save mint keypair: %w", err)
	}
	logger.Infof("[Minter] mint keypair 已保存: %s", f.opt.MintKeypairOut)
	return mint, nil
}

func (f *Flow) fail(ctx context.Context, report *Report, err error) error {
	report.Status = progress.MintFailed.String()
	report.Error = err.Error()
	f.record(ctx, &progress.MintRecord{Mint: report.Mint, Status: progress.MintFailed, Error: err.Error()})
	return err
}

// record 进度记录失败只告警，不影响主流程
func (f *Flow) record(ctx context.Context, rec *progress.MintRecord) {
	if f.recorder == nil {
		return
	}
	rec.UpdatedAt = f.now().Unix()
	if err := f.recorder.MarkStatus(ctx, rec); err != nil {
		logger.Warnf("[Minter] 写入进度失败: mint=%s status=%s err=%v", rec.Mint, rec.Status, err)
	}
}

// publish 事件发送失败只告警，不影响主流程
func (f *Flow) publish(ctx context.Context, event *mq.MintEvent) {
	if f.publisher == nil {
		return
	}
	if err := f.publisher.Publish(ctx, event); err != nil {
		logger.Warnf("[Minter] 发送事件失败: type=%s mint=%s err=%v", event.Type, event.Mint, err)
	}
}
