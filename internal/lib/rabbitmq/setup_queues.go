package rabbitmq

// Exchange — direct-exchange уведомлений магазина.
const Exchange = "notifications"

// Ключи маршрутизации уведомлений.
const (
	RoutingOrderPaid            = "order.paid"
	RoutingSubscriptionExpiring = "subscription.expiring"
)

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые слушает рассыльщик.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.order_paid", RoutingKey: RoutingOrderPaid},
		{QueueName: "notification.subscription_expiring", RoutingKey: RoutingSubscriptionExpiring},
	}
}
