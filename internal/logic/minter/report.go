package minter

import (
	"encoding/hex"
	"fmt"
	"os"

	sdktypes "github.com/blocto/solana-go-sdk/types"
	"gopkg.in/yaml.v3"

	"token-mint-sol/internal/instruction"
)

// Report 一次运行的回执
type Report struct {
	Status          string            `yaml:"status"`
	ProgramID       string            `yaml:"program_id"`
	Payer           string            `yaml:"payer"`
	PayerLamports   uint64            `yaml:"payer_lamports,omitempty"`
	Mint            string            `yaml:"mint"`
	Target          string            `yaml:"target,omitempty"`
	Decimals        uint8             `yaml:"decimals"`
	Amount          uint64            `yaml:"amount"`
	CreateSignature string            `yaml:"create_signature,omitempty"`
	MintSignature   string            `yaml:"mint_signature,omitempty"`
	TargetBalance   *uint64           `yaml:"target_balance,omitempty"`
	Error           string            `yaml:"error,omitempty"`
	StartedAt       string            `yaml:"started_at"`
	Instructions    []InstructionDump `yaml:"instructions,omitempty"`
}

type InstructionDump struct {
	Name     string        `yaml:"name"`
	Program  string        `yaml:"program"`
	Data     string        `yaml:"data"` // hex
	Accounts []AccountDump `yaml:"accounts"`
}

type AccountDump struct {
	Pubkey   string `yaml:"pubkey"`
	Signer   bool   `yaml:"signer"`
	Writable bool   `yaml:"writable"`
}

func dumpInstruction(ix sdktypes.Instruction) InstructionDump {
	dump := InstructionDump{
		Program: ix.ProgramID.ToBase58(),
		Data:    hex.EncodeToString(ix.Data),
	}
	if decoded, err := instruction.Decode(ix.Data); err == nil {
		dump.Name = decoded.String()
	}
	for _, acc := range ix.Accounts {
		dump.Accounts = append(dump.Accounts, AccountDump{
			Pubkey:   acc.PubKey.ToBase58(),
			Signer:   acc.IsSigner,
			Writable: acc.IsWritable,
		})
	}
	return dump
}

// Render 输出 YAML
func (r *Report) Render() ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return out, nil
}

// WriteFile 写入回执文件
func (r *Report) WriteFile(path string) error {
	out, err := r.Render()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
