package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"token-mint-sol/internal/types"
	"token-mint-sol/internal/utils"
)

// EventType 铸币流程事件类型（编码在消息前 4 字节）
type EventType uint32

const (
	EventTokenCreated EventType = 1
	EventTokenMinted  EventType = 2
)

func (t EventType) String() string {
	switch t {
	case EventTokenCreated:
		return "token_created"
	case EventTokenMinted:
		return "token_minted"
	default:
		return "unknown"
	}
}

// MintEvent 一个已确认步骤的事件
type MintEvent struct {
	Type      EventType
	ProgramID types.Pubkey
	Mint      types.Pubkey
	Payer     types.Pubkey
	Target    types.Pubkey // 仅 Mint 事件
	Decimals  uint8
	Amount    uint64 // 仅 Mint 事件
	Signature types.Signature
	Timestamp int64
}

// ToProto 转为 structpb，金额以字符串保存避免 float64 精度丢失
func (e *MintEvent) ToProto() (*structpb.Struct, error) {
	fields := map[string]any{
		"type":       e.Type.String(),
		"program_id": e.ProgramID.String(),
		"mint":       e.Mint.String(),
		"payer":      e.Payer.String(),
		"decimals":   int64(e.Decimals),
		"signature":  e.Signature.String(),
		"timestamp":  e.Timestamp,
	}
	if e.Type == EventTokenMinted {
		fields["target"] = e.Target.String()
		fields["amount"] = fmt.Sprintf("%d", e.Amount)
	}
	return structpb.NewStruct(fields)
}

// Publisher 将铸币事件发送到 Kafka，同一 mint 落在同一分区
type Publisher struct {
	producer    kafkaProducer
	topic       string
	partitions  uint32
	sendTimeout time.Duration
}

func NewPublisher(producer kafkaProducer, topic string, partitions int, sendTimeout time.Duration) *Publisher {
	if partitions <= 0 {
		partitions = 1
	}
	return &Publisher{
		producer:    producer,
		topic:       topic,
		partitions:  uint32(partitions),
		sendTimeout: sendTimeout,
	}
}

// Publish 发送事件，返回所有失败原因的合并错误
func (p *Publisher) Publish(ctx context.Context, events ...*MintEvent) error {
	jobs := make([]*KafkaJob, 0, len(events))
	for _, e := range events {
		msg, err := e.ToProto()
		if err != nil {
			return fmt.Errorf("build %s event: %w", e.Type, err)
		}
		value, err := utils.EncodeEvent(uint32(e.Type), msg)
		if err != nil {
			return err
		}
		jobs = append(jobs, &KafkaJob{
			Topic:     p.topic,
			Partition: int32(utils.PartitionHashBytes(e.Mint[:], p.partitions)),
			Key:       e.Mint[:],
			Value:     value,
		})
	}

	_, failed := SendKafkaJobs(ctx, p.producer, jobs, p.sendTimeout)
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, f := range failed {
		errs = append(errs, fmt.Errorf("topic=%s partition=%d: %w", f.Job.Topic, f.Job.Partition, f.Err))
	}
	return errors.Join(errs...)
}
