package constants

// Обменник
const (
	ExchangeParser     = "nadlan_exchange"
	ExchangeParserType = "direct"
)

// Имена очередей
const (
	QueueAcquisitionRequests = "acquisition_requests"
)

// Ключи маршрутизации
const (
	RoutingKeyAcquisitionRequests = "nadlan.transactions.request"
	RoutingKeyAcquisitionResults  = "nadlan.transactions.result"
)
