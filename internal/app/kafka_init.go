package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/messaging/kafka"
)

// initKafkaProducer инициализирует Kafka producer если brokers не пустой.
// Возвращает nil, nil если brokers пустой или если произошла ошибка.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	if brokers == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// initInvalidationConsumer подписывает кеш на события каталога других
// инстансов. Возвращает nil, nil при пустом brokers или ошибке подключения.
func initInvalidationConsumer(brokers, groupID string, localCache domain.Cache, logger *log.Entry) (*kafka.Consumer, error) {
	if brokers == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	consumer, err := kafka.NewInvalidationConsumer(brokerList, groupID, localCache, logger)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka consumer, continuing without cross-node invalidation")
		return nil, err
	}

	logger.WithFields(log.Fields{"brokers": brokerList, "group_id": groupID}).Info("cache invalidation consumer initialized")
	return consumer, nil
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
