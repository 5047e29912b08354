package service

const (
	EventTransactionCommitted = "transaction_committed"
	EventLowStock             = "low_stock"
	EventItemCreated          = "item_created"
	EventItemUpdated          = "item_updated"
	EventItemDeleted          = "item_deleted"
)

// Notifier receives ledger events after they commit. Publish must not block.
type Notifier interface {
	Publish(event string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
