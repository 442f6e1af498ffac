package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/zeromicro/go-zero/core/conf"

	"token-mint-sol/internal/consts"
	"token-mint-sol/internal/types"
	"token-mint-sol/pkg/logger"
)

type LogConfig struct {
	Format   string `json:"format,default=console"` // 日志格式，支持 "console" 或 "json"
	LogDir   string `json:"log_dir,optional"`       // 日志目录，为空时只输出到终端
	Level    string `json:"level,default=info"`     // 日志级别：debug / info / warn / error
	Compress bool   `json:"compress,optional"`      // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// RpcConfig 表示 Solana RPC 节点相关配置
type RpcConfig struct {
	Endpoint          string `json:"endpoint,default=http://localhost:8899"` // RPC 地址，例如 http://localhost:8899
	Commitment        string `json:"commitment,default=confirmed"`           // 确认级别：processed / confirmed / finalized
	RequestTimeoutMs  int    `json:"request_timeout_ms,default=10000"`       // 单次 RPC 请求超时（毫秒）
	ConfirmTimeoutSec int    `json:"confirm_timeout_sec,default=60"`         // 等待交易确认的最长时间（秒）
	PollIntervalMs    int    `json:"poll_interval_ms,default=500"`           // 轮询签名状态的间隔（毫秒）
}

func (c *RpcConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c *RpcConfig) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSec) * time.Second
}

func (c *RpcConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// ProgramConfig 表示代币程序与本次发行参数
type ProgramConfig struct {
	ProgramID      string `json:"program_id,default=8nPrchpGf8Jt4FCZy37BvBrMkU8EMAr9S3vKzTEnqoBm"` // 链上代币程序地址
	PayerKeypair   string `json:"payer_keypair,default=~/.config/solana/id.json"`                  // 付费账户 keypair 文件
	MintKeypairOut string `json:"mint_keypair_out,optional"`                                       // 新 mint 的 keypair 保存路径，为空则不保存
	Decimals       int    `json:"decimals,default=6"`                                              // 代币精度（0~255）
	Amount         uint64 `json:"amount,default=600"`                                              // 铸造数量（最小单位）

	// 仅本地验证器有效：余额低于 MinPayerLamports 时申请空投
	MinPayerLamports uint64 `json:"min_payer_lamports,optional"`
	AirdropLamports  uint64 `json:"airdrop_lamports,optional"`
}

// RedisConfig 进度记录（可选）
type RedisConfig struct {
	Addr     string `json:"addr,optional"` // 为空则不启用
	Password string `json:"password,optional"`
	DB       int    `json:"db,optional"`
	TTLHours int    `json:"ttl_hours,optional"` // 进度记录保留时间
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置（可选）
type KafkaProducerConfig struct {
	Brokers       string `json:"brokers,optional"`    // Kafka broker 地址，多个用英文逗号分隔；为空则不启用
	BatchSize     int    `json:"batch_size,optional"` // 批处理大小（单位字节）
	LingerMs      int    `json:"linger_ms,optional"`  // 批处理最大延迟（毫秒）
	Topic         string `json:"topic,optional"`      // 铸币事件 topic
	Partitions    int    `json:"partitions,optional"` // topic 分区数
	SendTimeoutMs int    `json:"send_timeout_ms,optional"`
}

func (c *KafkaProducerConfig) Enabled() bool {
	return strings.TrimSpace(c.Brokers) != ""
}

func (c *KafkaProducerConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutMs) * time.Millisecond
}

type ReportConfig struct {
	Output string `json:"output,optional"` // YAML 回执输出文件，为空只打印到终端
}

// Config 是主配置结构体
type Config struct {
	LogConf           LogConfig           `json:"logger,optional"`
	RpcConf           RpcConfig           `json:"rpc,optional"`
	ProgramConf       ProgramConfig       `json:"program"`
	RedisConf         RedisConfig         `json:"redis,optional"`
	KafkaProducerConf KafkaProducerConfig `json:"kafka_producer,optional"`
	ReportConf        ReportConfig        `json:"report,optional"`
}

// Load 读取配置文件并补全默认值、校验。
// 校验方法不命名为 Validate：conf.Load 会在补全默认值之前自动调用它
func Load(path string) (Config, error) {
	var c Config
	if err := conf.Load(path, &c); err != nil {
		return c, fmt.Errorf("load config %s: %w", path, err)
	}
	c.FillDefaults()
	if err := c.Check(); err != nil {
		return c, err
	}
	return c, nil
}

// MustLoad 读取失败直接退出，仅在 main 中使用
func MustLoad(path string) Config {
	c, err := Load(path)
	if err != nil {
		panic(err)
	}
	return c
}

// FillDefaults 整段缺省（如未写 rpc:）时 tag 默认值不生效，这里兜底
func (c *Config) FillDefaults() {
	if c.LogConf.Format == "" {
		c.LogConf.Format = "console"
	}
	if c.LogConf.Level == "" {
		c.LogConf.Level = "info"
	}

	if c.RpcConf.Endpoint == "" {
		c.RpcConf.Endpoint = consts.DefaultRpcEndpoint
	}
	if c.RpcConf.Commitment == "" {
		c.RpcConf.Commitment = string(rpc.CommitmentConfirmed)
	}
	if c.RpcConf.RequestTimeoutMs <= 0 {
		c.RpcConf.RequestTimeoutMs = 10_000
	}
	if c.RpcConf.ConfirmTimeoutSec <= 0 {
		c.RpcConf.ConfirmTimeoutSec = 60
	}
	if c.RpcConf.PollIntervalMs <= 0 {
		c.RpcConf.PollIntervalMs = 500
	}

	if c.ProgramConf.ProgramID == "" {
		c.ProgramConf.ProgramID = consts.DefaultTokenProgramIDStr
	}
	if c.ProgramConf.PayerKeypair == "" {
		c.ProgramConf.PayerKeypair = consts.DefaultPayerKeypair
	}

	if c.RedisConf.TTLHours <= 0 {
		c.RedisConf.TTLHours = 72
	}

	if c.KafkaProducerConf.Topic == "" {
		c.KafkaProducerConf.Topic = "token-mint-events"
	}
	if c.KafkaProducerConf.Partitions <= 0 {
		c.KafkaProducerConf.Partitions = 1
	}
	if c.KafkaProducerConf.SendTimeoutMs <= 0 {
		c.KafkaProducerConf.SendTimeoutMs = 5_000
	}
}

// Check 校验配置合法性，需在 FillDefaults 之后调用
func (c *Config) Check() error {
	var errs []error

	switch rpc.Commitment(c.RpcConf.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		errs = append(errs, fmt.Errorf("rpc.commitment: unsupported %q", c.RpcConf.Commitment))
	}

	if _, err := types.TryPubkeyFromBase58(c.ProgramConf.ProgramID); err != nil {
		errs = append(errs, fmt.Errorf("program.program_id: %w", err))
	}
	if c.ProgramConf.Decimals < 0 || c.ProgramConf.Decimals > 255 {
		errs = append(errs, fmt.Errorf("program.decimals: out of range [0, 255]: %d", c.ProgramConf.Decimals))
	}
	if c.ProgramConf.AirdropLamports > 0 && c.ProgramConf.MinPayerLamports == 0 {
		errs = append(errs, errors.New("program.min_payer_lamports: required when airdrop_lamports is set"))
	}

	return errors.Join(errs...)
}

// ProgramPubkey 返回程序地址，调用前需已通过 Check
func (c *ProgramConfig) ProgramPubkey() types.Pubkey {
	return types.PubkeyFromBase58(c.ProgramID)
}
