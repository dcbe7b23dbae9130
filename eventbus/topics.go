package eventbus

import "brewspot/config"

// ListingTopic 은 리스팅 라이프사이클 이벤트가 흐르는 토픽이다.
func ListingTopic(cfg config.KafkaConfig) Topic {
	return NewTopic(cfg.ListingTopic)
}
