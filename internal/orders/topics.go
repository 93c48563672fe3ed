package orders

const TopicValidateOrder = "order.validate"

// Partition key = order_id, so redeliveries of one order land on the same partition.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
