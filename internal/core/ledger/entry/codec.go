package entry

import (
	"fmt"

	"github.com/ugorji/go/codec"
)

var msgpackHandle = func() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.Canonical = true
	return h
}()

// Encode serializes an entry as msgpack.
func Encode(e Entry) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, msgpackHandle).Encode(e); err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.EntryType(), err)
	}
	return buf, nil
}

// Decode deserializes msgpack data into e.
func Decode(data []byte, e Entry) error {
	if err := codec.NewDecoderBytes(data, msgpackHandle).Decode(e); err != nil {
		return fmt.Errorf("decode %s: %w", e.EntryType(), err)
	}
	return nil
}

// EncodeValue serializes any value with the ledger codec. Snapshots use it for records.
func EncodeValue(v any) ([]byte, error) {
	var buf []byte
	err := codec.NewEncoderBytes(&buf, msgpackHandle).Encode(v)
	return buf, err
}

// NewStreamEncoder returns a msgpack encoder writing to w.
func NewStreamEncoder(w interface{ Write([]byte) (int, error) }) *codec.Encoder {
	return codec.NewEncoder(w, msgpackHandle)
}

// NewStreamDecoder returns a msgpack decoder reading from r.
func NewStreamDecoder(r interface{ Read([]byte) (int, error) }) *codec.Decoder {
	return codec.NewDecoder(r, msgpackHandle)
}

// New returns an empty entry of the given type.
func New(t Type) (Entry, error) {
	switch t {
	case TypeBalance:
		return &Balance{}, nil
	case TypeTokenSupply:
		return &TokenSupply{}, nil
	case TypeAsset:
		return &Asset{}, nil
	case TypeAssetCounter:
		return &AssetCounter{}, nil
	case TypeOwnerLink:
		return &OwnerLink{}, nil
	case TypeOperator:
		return &Operator{}, nil
	case TypeListing:
		return &Listing{}, nil
	case TypeOffer:
		return &Offer{}, nil
	case TypeOfferCounter:
		return &OfferCounter{}, nil
	case TypeEscrow:
		return &Escrow{}, nil
	case TypeYieldReg:
		return &YieldRegistration{}, nil
	case TypeMarketConfig:
		return &MarketConfig{}, nil
	case TypeYieldConfig:
		return &YieldConfig{}, nil
	case TypeGovernance:
		return &Governance{}, nil
	case TypeHeader:
		return &Header{}, nil
	case TypeSequence:
		return &AccountSequence{}, nil
	default:
		return nil, fmt.Errorf("unknown entry type %s", t)
	}
}
