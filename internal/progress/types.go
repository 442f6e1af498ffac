package progress

import (
	"fmt"
	"strconv"
)

// MintStatus 表示一次发行流程所处的阶段（Redis 中以整数存储）
type MintStatus int

const (
	MintUnknown MintStatus = 0 // Redis 不存在
	MintPending MintStatus = 1 // 🕒 已生成 mint，尚未上链
	MintCreated MintStatus = 2 // ✅ CreateToken 已确认
	MintMinted  MintStatus = 3 // ✅ Mint 已确认
	MintFailed  MintStatus = 4 // ❌ 任一步骤失败
)

func (s MintStatus) String() string {
	switch s {
	case MintPending:
		return "pending"
	case MintCreated:
		return "created"
	case MintMinted:
		return "minted"
	case MintFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MintRecord 一次发行流程的进度记录
type MintRecord struct {
	Mint      string
	Payer     string
	Target    string // ATA
	Status    MintStatus
	Decimals  uint8
	Amount    uint64
	CreateSig string
	MintSig   string
	Error     string
	UpdatedAt int64 // Unix 秒
}

const (
	fieldPayer     = "payer"
	fieldTarget    = "target"
	fieldStatus    = "status"
	fieldDecimals  = "decimals"
	fieldAmount    = "amount"
	fieldCreateSig = "create_sig"
	fieldMintSig   = "mint_sig"
	fieldError     = "error"
	fieldUpdatedAt = "updated_at"
)

// toFields 只输出非空字段，HSET 时不会覆盖之前阶段写入的值
func (r *MintRecord) toFields() map[string]any {
	fields := map[string]any{
		fieldStatus:    int(r.Status),
		fieldUpdatedAt: r.UpdatedAt,
	}
	if r.Payer != "" {
		fields[fieldPayer] = r.Payer
	}
	if r.Target != "" {
		fields[fieldTarget] = r.Target
	}
	if r.Decimals != 0 {
		fields[fieldDecimals] = r.Decimals
	}
	if r.Amount != 0 {
		fields[fieldAmount] = r.Amount
	}
	if r.CreateSig != "" {
		fields[fieldCreateSig] = r.CreateSig
	}
	if r.MintSig != "" {
		fields[fieldMintSig] = r.MintSig
	}
	if r.Error != "" {
		fields[fieldError] = r.Error
	}
	return fields
}

func recordFromFields(mint string, m map[string]string) (*MintRecord, error) {
	r := &MintRecord{
		Mint:      mint,
		Payer:     m[fieldPayer],
		Target:    m[fieldTarget],
		CreateSig: m[fieldCreateSig],
		MintSig:   m[fieldMintSig],
		Error:     m[fieldError],
	}

	if v, ok := m[fieldStatus]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid status %q: %w", v, err)
		}
		r.Status = MintStatus(n)
	}
	if v, ok := m[fieldDecimals]; ok {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid decimals %q: %w", v, err)
		}
		r.Decimals = uint8(n)
	}
	if v, ok := m[fieldAmount]; ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", v, err)
		}
		r.Amount = n
	}
	if v, ok := m[fieldUpdatedAt]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid updated_at %q: %w", v, err)
		}
		r.UpdatedAt = n
	}
	return r, nil
}
