package kafka

import (
	"context"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

const productCachePrefix = "products:"

// NewInvalidationHandler возвращает обработчик событий каталога,
// сбрасывающий локальный кеш выборок. Так инстансы узнают об
// изменениях, сделанных другими узлами.
func NewInvalidationHandler(cache domain.Cache, logger *log.Entry) MessageHandler {
	if logger == nil {
		logger = log.New().WithField("component", "cache-invalidation")
	}

	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		if err := cache.RemoveByPrefix(ctx, productCachePrefix); err != nil {
			logger.WithError(err).Warn("failed to invalidate product cache")
			return err
		}

		logger.WithFields(log.Fields{
			"topic":  message.Topic,
			"offset": message.Offset,
		}).Debug("product cache invalidated")
		return nil
	}
}

// NewInvalidationConsumer создаёт consumer событий каталога для
// межузловой инвалидации кеша.
func NewInvalidationConsumer(brokers []string, groupID string, cache domain.Cache, logger *log.Entry) (*Consumer, error) {
	return NewConsumer(brokers, groupID, []string{TopicProductEvents}, NewInvalidationHandler(cache, logger))
}
