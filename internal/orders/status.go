package orders

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

var validNext = map[Status]map[Status]bool{
	StatusPending: {StatusSuccess: true, StatusFailed: true},
	StatusSuccess: {},
	StatusFailed:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
