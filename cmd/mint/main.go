package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/blocto/solana-go-sdk/rpc"

	"token-mint-sol/internal/config"
	"token-mint-sol/internal/logic/minter"
	"token-mint-sol/internal/service"
	"token-mint-sol/internal/svc"
	"token-mint-sol/pkg/logger"
)

var (
	configFile = flag.String("f", "etc/mint.yaml", "the config file")
	dryRun     = flag.Bool("dry-run", false, "build and print instructions without sending")
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			// 配置加载阶段 logger 尚未初始化，同时输出到 stderr
			fmt.Fprintf(os.Stderr, "panic: %+v\n", r)
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			code = 2
		}
		logger.Sync()
	}()

	flag.Parse()

	c := config.MustLoad(*configFile)
	logger.MustInit(c.LogConf.ToLogOption())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var report *minter.Report
	var err error
	if *dryRun {
		// dry-run 不连接任何外部服务
		flow := minter.NewFlow(dryRunOps(c), nil, nil, flowOption(c))
		report, err = flow.DryRun()
	} else {
		serviceContext, ctxErr := svc.NewServiceContext(c)
		if ctxErr != nil {
			logger.Errorf("服务上下文初始化失败: %v", ctxErr)
			return 1
		}
		defer serviceContext.Close()

		var recorder minter.ProgressRecorder
		if serviceContext.ProgressStore != nil {
			recorder = serviceContext.ProgressStore
		}
		var publisher minter.EventPublisher
		if serviceContext.Publisher != nil {
			publisher = serviceContext.Publisher
		}

		flow := minter.NewFlow(serviceContext.TokenService, recorder, publisher, flowOption(c))
		report, err = flow.Run(ctx)
	}

	if report != nil {
		if out, renderErr := report.Render(); renderErr == nil {
			fmt.Print(string(out))
		}
		if c.ReportConf.Output != "" {
			if writeErr := report.WriteFile(c.ReportConf.Output); writeErr != nil {
				logger.Warnf("写入回执失败: %v", writeErr)
			}
		}
	}
	if err != nil {
		logger.Errorf("铸币流程失败: %v", err)
		return 1
	}
	return 0
}

func flowOption(c config.Config) minter.FlowOption {
	return minter.FlowOption{
		PayerKeypair:     c.ProgramConf.PayerKeypair,
		MintKeypairOut:   c.ProgramConf.MintKeypairOut,
		Decimals:         uint8(c.ProgramConf.Decimals),
		Amount:           c.ProgramConf.Amount,
		MinPayerLamports: c.ProgramConf.MinPayerLamports,
		AirdropLamports:  c.ProgramConf.AirdropLamports,
	}
}

// dryRunOps 只用于提供程序地址，nil 客户端保证不会发出任何 RPC
func dryRunOps(c config.Config) *service.TokenService {
	return service.NewTokenService(nil, service.TokenServiceOption{
		ProgramID:  c.ProgramConf.ProgramPubkey(),
		Commitment: rpc.Commitment(c.RpcConf.Commitment),
	})
}
