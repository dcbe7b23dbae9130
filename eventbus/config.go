package eventbus

import (
	"errors"

	"brewspot/config"
)

var ErrNoBrokers = errors.New("kafka brokers are not configured (KAFKA_BOOTSTRAP_SERVERS)")

// Brokers returns the configured bootstrap servers.
func Brokers(cfg config.KafkaConfig) (string, error) {
	if cfg.Brokers == "" {
		return "", ErrNoBrokers
	}
	return cfg.Brokers, nil
}

// GroupID returns the consumer group, falling back to fallback when unset.
func GroupID(cfg config.KafkaConfig, fallback string) string {
	if cfg.GroupID != "" {
		return cfg.GroupID
	}
	return fallback
}
