package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"pairs/storage"
)

// Message 推送给下游（展示层、告警）的回测摘要
type Message struct {
	ID          string   `json:"id"`
	Pair        string   `json:"pair"`
	SymbolA     string   `json:"symbol_a"`
	SymbolB     string   `json:"symbol_b"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Trades      int      `json:"trades"`
	TotalReturn float64  `json:"total_return"`
	Sharpe      *float64 `json:"sharpe_ratio"`
	MaxDrawdown float64  `json:"max_drawdown"`
	InTrade     bool     `json:"in_trade"`
	LastZ       *float64 `json:"last_z"`
	CreatedAt   string   `json:"created_at"`
}

func NewMessage(run storage.Run) Message {
	r := run.Result
	return Message{
		ID:          run.ID,
		Pair:        r.Pair.Label(),
		SymbolA:     r.Pair.A,
		SymbolB:     r.Pair.B,
		Start:       r.Start,
		End:         r.End,
		Trades:      len(r.Trades),
		TotalReturn: r.Summary.TotalReturn,
		Sharpe:      r.Summary.SharpeRatio,
		MaxDrawdown: r.Summary.MaxDrawdown,
		InTrade:     r.Status.InTrade,
		LastZ:       r.Status.LastZ,
		CreatedAt:   run.CreatedAt.Format(time.RFC3339),
	}
}

// Subject <prefix>.<pair>，pair 中 NATS 保留字符替换为 _
func Subject(prefix, pair string) string {
	r := strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_", "/", "_")
	return prefix + "." + r.Replace(pair)
}

// Publisher 发布者接口，便于测试替换
type Publisher interface {
	Publish(run storage.Run) error
	Close() error
}

// NATSPublisher NATS 推送
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSPublisher 连接 NATS
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("pairs"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, prefix: prefix}, nil
}

func (p *NATSPublisher) Publish(run storage.Run) error {
	msg := NewMessage(run)
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.conn.Publish(Subject(p.prefix, msg.Pair), b)
}

func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}

// Nop 未配置 NATS 时使用
type Nop struct{}

func (Nop) Publish(storage.Run) error { return nil }
func (Nop) Close() error              { return nil }
