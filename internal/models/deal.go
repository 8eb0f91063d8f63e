package models

// DealStatus is the lifecycle state of a deal as stored in deals.status.
type DealStatus string

const (
	DealWaitingSeller   DealStatus = "waiting_seller"
	DealActive          DealStatus = "active"
	DealArbitrage       DealStatus = "arbitrage"
	DealClosed          DealStatus = "closed"
	DealCanceled        DealStatus = "canceled"
	DealClosedArbitrage DealStatus = "closed_arbitrage"
)

var dealTransitions = map[DealStatus][]DealStatus{
	DealWaitingSeller: {DealActive, DealCanceled},
	DealActive:        {DealArbitrage, DealClosed, DealCanceled},
	DealArbitrage:     {DealClosedArbitrage},
}

// CanTransition reports whether a deal may move from one status to another.
func CanTransition(from, to DealStatus) bool {
	for _, next := range dealTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func (s DealStatus) IsTerminal() bool {
	return s == DealClosed || s == DealCanceled || s == DealClosedArbitrage
}

// IsActive matches the "active" classification used by aggregates: anything
// not terminal and not waiting for the seller.
func (s DealStatus) IsActive() bool {
	return !s.IsTerminal() && s != DealWaitingSeller
}

func (s DealStatus) Valid() bool {
	switch s {
	case DealWaitingSeller, DealActive, DealArbitrage, DealClosed, DealCanceled, DealClosedArbitrage:
		return true
	}
	return false
}

// Party identifies a side of a deal.
type Party string

const (
	PartyBuyer  Party = "buyer"
	PartySeller Party = "seller"
)

// Deal is an escrowed transaction between a buyer and a seller.
type Deal struct {
	ID         int64      `json:"id" db:"id"`
	SellerID   int64      `json:"seller" db:"seller"`
	BuyerID    int64      `json:"buyer" db:"buyer"`
	Sum        int64      `json:"sum" db:"sum"` // in minor units
	Status     DealStatus `json:"status" db:"status"`
	CreateTime int64      `json:"createTime" db:"create_time"`
	Info       string     `json:"info" db:"info"`
	Escrowed   bool       `json:"escrowed" db:"escrowed"`
}

// DealMessage is one entry of the append-only deal communication log.
type DealMessage struct {
	DealID  int64  `json:"dealId" db:"deal_id"`
	UserID  int64  `json:"userId" db:"user_id"`
	Message string `json:"message" db:"message"`
}

// DealStats is the read-only deal overview served to operators.
type DealStats struct {
	Total         int64 `json:"total"`
	Active        int64 `json:"active"`
	ActiveSum     int64 `json:"activeSum"`
	Day           int64 `json:"day"`
	Week          int64 `json:"week"`
	Month         int64 `json:"month"`
	UsersDay      int64 `json:"usersDay"`
	UsersWeek     int64 `json:"usersWeek"`
	UsersMonth    int64 `json:"usersMonth"`
	BalancesTotal int64 `json:"balancesTotal"`
}
