package tx

import (
	"strconv"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
)

// Event streams.
const (
	StreamMarket = "market"
	StreamYield  = "yield"
	StreamAdmin  = "admin"
	StreamAsset  = "asset"
	StreamToken  = "token"
)

// Event types.
const (
	EventListed              = "Listed"
	EventDelisted            = "Delisted"
	EventSold                = "Sold"
	EventOfferMade           = "OfferMade"
	EventOfferAccepted       = "OfferAccepted"
	EventOfferCancelled      = "OfferCancelled"
	EventFeeUpdated          = "FeeUpdated"
	EventFeeCollectorUpdated = "FeeCollectorUpdated"
	EventPropertyRegistered  = "PropertyRegistered"
	EventYieldClaimed        = "YieldClaimed"
	EventYieldRateUpdated    = "YieldRateUpdated"
	EventAssetMinted         = "AssetMinted"
	EventAssetTransferred    = "AssetTransferred"
	EventApproval            = "Approval"
	EventApprovalForAll      = "ApprovalForAll"
	EventTokenTransferred    = "TokenTransferred"
	EventTokenMinted         = "TokenMinted"
)

// Event is an observable state change. Sequence, TxHash and Time are
// assigned by the engine when the transaction commits.
type Event struct {
	Sequence uint64            `json:"sequence"`
	TxHash   string            `json:"tx_hash"`
	Time     int64             `json:"time"`
	Type     string            `json:"type"`
	Stream   string            `json:"stream"`
	AssetID  *uint64           `json:"asset_id,omitempty"`
	Accounts []account.ID      `json:"accounts,omitempty"`
	Data     map[string]string `json:"data,omitempty"`
}

// NewEvent starts an event of the given type on stream.
func NewEvent(stream, typ string) Event {
	return Event{Stream: stream, Type: typ, Data: map[string]string{}}
}

// WithAsset sets the asset the event concerns.
func (e Event) WithAsset(id uint64) Event {
	e.AssetID = &id
	return e
}

// With records a named party and indexes it for account streams.
func (e Event) With(key string, acct account.ID) Event {
	e.Data[key] = acct.String()
	e.Accounts = append(e.Accounts, acct)
	return e
}

// Set records an attribute.
func (e Event) Set(key, value string) Event {
	e.Data[key] = value
	return e
}

// SetAmount records an amount in base units.
func (e Event) SetAmount(key string, a amount.Amount) Event {
	e.Data[key] = strconv.FormatUint(a.Units(), 10)
	return e
}

// SetUint records an integer attribute.
func (e Event) SetUint(key string, v uint64) Event {
	e.Data[key] = strconv.FormatUint(v, 10)
	return e
}

// Involves reports whether acct is a party to the event.
func (e Event) Involves(acct account.ID) bool {
	for _, a := range e.Accounts {
		if a == acct {
			return true
		}
	}
	return false
}

//go:generate mockgen -destination=mock/event_sink.go -package=mock github.com/LeJamon/goPropLedger/internal/core/tx EventSink

// EventSink receives the events of every committed transaction, in commit order.
type EventSink interface {
	Publish(events []Event)
}

// ResultObserver is told the outcome of every transaction, applied or not.
type ResultObserver interface {
	ObserveResult(t Type, r Result)
}
