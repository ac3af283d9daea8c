package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"intraday-trader/internal/interfaces"
	"intraday-trader/internal/logger"
	"intraday-trader/internal/types"
)

// Kafka publishes engine events as JSON to a topic, keyed by symbol so a
// consumer sees each symbol's events in order.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

var _ interfaces.Notifier = (*Kafka)(nil)

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	return &Kafka{producer: producer, topic: topic}, nil
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}

type event struct {
	Type string `json:"type"`
	At   string `json:"at"`
	Data any    `json:"data"`
}

func (k *Kafka) publish(ctx context.Context, key, eventType string, data any) {
	b, err := json.Marshal(event{
		Type: eventType,
		At:   time.Now().UTC().Format(time.RFC3339),
		Data: data,
	})
	if err != nil {
		logger.Warn(ctx, "kafka event marshal failed", "type", eventType, "error", err.Error())
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(b),
	}
	if _, _, err := k.producer.SendMessage(msg); err != nil {
		logger.Warn(ctx, "kafka publish failed", "type", eventType, "error", err.Error())
	}
}

func (k *Kafka) EntryAccepted(ctx context.Context, pos types.Position, reason string) {
	k.publish(ctx, pos.Symbol, "entry_accepted", map[string]any{
		"position": pos,
		"reason":   reason,
	})
}

func (k *Kafka) ExitRealized(ctx context.Context, trade types.Trade) {
	k.publish(ctx, trade.Symbol, "exit_realized", trade)
}

func (k *Kafka) KillSwitchTripped(ctx context.Context, reason string) {
	k.publish(ctx, "risk", "kill_switch_tripped", map[string]string{"reason": reason})
}

func (k *Kafka) SessionSummary(ctx context.Context, snap types.PortfolioSnapshot) {
	k.publish(ctx, "session", "session_summary", map[string]any{
		"daily_pnl":     snap.DailyPnL,
		"trades":        snap.DailyTrades,
		"losing_trades": snap.DailyLosing,
		"kill_switch":   snap.KillSwitch,
	})
}
