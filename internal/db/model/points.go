package model

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Points is an 18 decimal fixed-point amount of reward points. It is stored
// as a decimal string so no precision is lost in the database.
type Points struct {
	sdkmath.LegacyDec
}

func NewPoints(d sdkmath.LegacyDec) Points {
	return Points{LegacyDec: d}
}

func ZeroPoints() Points {
	return Points{LegacyDec: sdkmath.LegacyZeroDec()}
}

// Dec returns the underlying decimal, treating an unset value as zero.
func (p Points) Dec() sdkmath.LegacyDec {
	if p.LegacyDec.IsNil() {
		return sdkmath.LegacyZeroDec()
	}
	return p.LegacyDec
}

func (p Points) String() string {
	return p.Dec().String()
}

func (p Points) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(p.Dec().String())
}

func (p *Points) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("points must be stored as string, got %s", t)
	}

	d, err := sdkmath.LegacyNewDecFromStr(s)
	if err != nil {
		return fmt.Errorf("invalid points value %q: %w", s, err)
	}
	p.LegacyDec = d
	return nil
}
