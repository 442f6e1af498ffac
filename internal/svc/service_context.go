package svc

import (
	"context"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"

	"token-mint-sol/internal/config"
	"token-mint-sol/internal/mq"
	"token-mint-sol/internal/progress"
	"token-mint-sol/internal/service"
	"token-mint-sol/pkg/logger"
)

// ServiceContext 包含铸币流程所需的全部资源
type ServiceContext struct {
	Config        config.Config
	TokenService  *service.TokenService
	ProgressStore *progress.RedisProgressStore // 未配置 Redis 时为 nil
	Producer      *kafka.Producer              // 未配置 Kafka 时为 nil
	Publisher     *mq.Publisher                // 未配置 Kafka 时为 nil
}

// NewServiceContext 创建服务上下文，可选组件初始化失败时直接返回错误
func NewServiceContext(c config.Config) (*ServiceContext, error) {
	// 1. 初始化 Solana RPC 客户端与 TokenService
	rpcClient := client.NewClient(c.RpcConf.Endpoint)
	tokenService := service.NewTokenService(rpcClient, service.TokenServiceOption{
		ProgramID:      c.ProgramConf.ProgramPubkey(),
		Commitment:     rpc.Commitment(c.RpcConf.Commitment),
		RequestTimeout: c.RpcConf.RequestTimeout(),
		ConfirmTimeout: c.RpcConf.ConfirmTimeout(),
		PollInterval:   c.RpcConf.PollInterval(),
	})

	ctx := &ServiceContext{
		Config:       c,
		TokenService: tokenService,
	}

	// 2. 初始化 Redis 进度记录（可选）
	if c.RedisConf.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisConf.Addr,
			Password: c.RedisConf.Password,
			DB:       c.RedisConf.DB,
		})
		store := progress.NewRedisProgressStore(rdb, time.Duration(c.RedisConf.TTLHours)*time.Hour)

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := store.Ping(pingCtx)
		cancel()
		if err != nil {
			_ = store.Close()
			logger.Errorf("Redis 连接失败: addr=%s err=%v", c.RedisConf.Addr, err)
			return nil, err
		}
		ctx.ProgressStore = store
	}

	// 3. 初始化 Kafka 生产者（可选）
	if c.KafkaProducerConf.Enabled() {
		producer, err := mq.NewKafkaProducer(c.KafkaProducerConf)
		if err != nil {
			ctx.Close()
			logger.Errorf("Kafka producer 初始化失败: %v", err)
			return nil, err
		}
		ctx.Producer = producer
		ctx.Publisher = mq.NewPublisher(producer, c.KafkaProducerConf.Topic, c.KafkaProducerConf.Partitions, c.KafkaProducerConf.SendTimeout())
	}

	logger.Infof("服务上下文初始化完成: rpc=%s program=%s redis=%t kafka=%t",
		c.RpcConf.Endpoint, c.ProgramConf.ProgramID, ctx.ProgressStore != nil, ctx.Producer != nil)
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *ServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Flush(3000)
		ctx.Producer.Close()
	}
	if ctx.ProgressStore != nil {
		_ = ctx.ProgressStore.Close()
	}
}
