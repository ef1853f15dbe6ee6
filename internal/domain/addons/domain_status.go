package addons

type DomainStatus string

const (
	DomainPendingPayment DomainStatus = "pending_payment"
	DomainActive         DomainStatus = "active"
	DomainCancelled      DomainStatus = "cancelled"
)

type domainTransition struct {
	from, to DomainStatus
}

var domainTransitions = map[domainTransition]bool{
	{DomainPendingPayment, DomainActive}:    true,
	{DomainPendingPayment, DomainCancelled}: true,
	// admin reopen
	{DomainCancelled, DomainPendingPayment}: true,
}

// CanTransition reports whether a domain request may move from one status to
// another. Active is terminal.
func CanTransition(from, to DomainStatus) bool {
	return domainTransitions[domainTransition{from, to}]
}

func (s DomainStatus) Valid() bool {
	switch s {
	case DomainPendingPayment, DomainActive, DomainCancelled:
		return true
	}
	return false
}
