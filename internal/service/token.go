package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"wechat_survey_backend/internal/util"

	"gorm.io/gorm"
)

const (
	LowerAlnum = "abcdefghijklmnopqrstuvwxyz0123456789"
	UpperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// TokenPolicy 短码生成参数，二维码短码与授权码共用同一套规则
type TokenPolicy struct {
	Length      int
	Alphabet    string
	MaxAttempts int
	Prefix      string
}

var (
	ShortCodePolicy = TokenPolicy{Length: 8, Alphabet: LowerAlnum, MaxAttempts: 10}
	AuthCodePolicy  = TokenPolicy{Length: 8, Alphabet: UpperAlnum, MaxAttempts: 10}
)

// ExistsFunc 检查编码是否已被占用
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// ReserveFunc 写入编码；返回 gorm.ErrDuplicatedKey 视为一次冲突
type ReserveFunc func(ctx context.Context, code string) error

type TokenGenerator struct {
	Policy TokenPolicy
	// 测试时可替换随机源
	Rand func(n int) (int, error)
}

func NewTokenGenerator(policy TokenPolicy) *TokenGenerator {
	return &TokenGenerator{Policy: policy, Rand: cryptoRandInt}
}

func cryptoRandInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func (g *TokenGenerator) validate() error {
	p := g.Policy
	if p.Alphabet == "" || p.MaxAttempts <= 0 {
		return fmt.Errorf("invalid token policy: %+v", p)
	}
	if p.Length <= len(p.Prefix) {
		return fmt.Errorf("token length %d must exceed prefix %q", p.Length, p.Prefix)
	}
	return nil
}

func (g *TokenGenerator) draw() (string, error) {
	p := g.Policy
	n := p.Length - len(p.Prefix)
	buf := make([]byte, n)
	for i := range buf {
		idx, err := g.Rand(len(p.Alphabet))
		if err != nil {
			return "", err
		}
		buf[i] = p.Alphabet[idx]
	}
	return p.Prefix + string(buf), nil
}

// Generate 生成一个未被占用的编码，最多尝试 MaxAttempts 次
func (g *TokenGenerator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	if err := g.validate(); err != nil {
		return "", err
	}
	for attempt := 0; attempt < g.Policy.MaxAttempts; attempt++ {
		code, err := g.draw()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", util.ErrTokenSpaceExhausted
}

// GenerateAndReserve 生成并写入，写入时的唯一键冲突同样计为一次尝试
func (g *TokenGenerator) GenerateAndReserve(ctx context.Context, exists ExistsFunc, reserve ReserveFunc) (string, error) {
	if err := g.validate(); err != nil {
		return "", err
	}
	for attempt := 0; attempt < g.Policy.MaxAttempts; attempt++ {
		code, err := g.draw()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}
		err = reserve(ctx, code)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", util.ErrTokenSpaceExhausted
}

// BatchResult 批量生成结果
type BatchResult struct {
	Codes      []string `json:"codes"`
	Duplicates int      `json:"duplicates"`
	Attempts   int      `json:"attempts"`
}

// GenerateBatch 批量生成 n 个编码，总尝试次数上限为 n*5；不足 n 个时返回 ErrTokenSpaceExhausted
func (g *TokenGenerator) GenerateBatch(ctx context.Context, n int, exists ExistsFunc, reserve ReserveFunc) (*BatchResult, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	res := &BatchResult{Codes: make([]string, 0, n)}
	maxAttempts := n * 5
	for len(res.Codes) < n && res.Attempts < maxAttempts {
		res.Attempts++
		code, err := g.draw()
		if err != nil {
			return res, err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return res, err
		}
		if taken {
			res.Duplicates++
			continue
		}
		err = reserve(ctx, code)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			res.Duplicates++
			continue
		}
		if err != nil {
			return res, err
		}
		res.Codes = append(res.Codes, code)
	}
	if len(res.Codes) < n {
		return res, util.ErrTokenSpaceExhausted
	}
	return res, nil
}
