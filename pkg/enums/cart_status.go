package enums

// CartStatus tracks whether a cart still accepts edits. A buyer owns at most
// one active cart; checkout closes it and the next add opens a fresh one.
type CartStatus string

const (
	CartStatusActive CartStatus = "active"
	CartStatusClosed CartStatus = "closed"
)

func (c CartStatus) String() string {
	return string(c)
}
