package snapshot

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/google/uuid"

	"github.com/abdoElHodaky/auctioncore/internal/ids"
	"github.com/abdoElHodaky/auctioncore/internal/money"
	"github.com/abdoElHodaky/auctioncore/internal/types"
)

// The primitive encoders below mirror internal/wal/codec.go's field-level
// encoding exactly (len:u16_le strings, 16-byte UUIDs, sign+scale+mantissa
// decimals), per SPEC_FULL §6; they are re-declared here rather than
// imported since the WAL package keeps them unexported.

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func writeI64(buf *bytes.Buffer, v int64) { writeU64(buf, uint64(v)) }

func readI64(r io.Reader) (int64, error) {
	v, err := readU64(r)
	return int64(v), err
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func readString(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint16(lenBuf[:])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", err
	}
	return string(data), nil
}

func writeUUID(buf *bytes.Buffer, u uuid.UUID) {
	b, _ := u.MarshalBinary()
	buf.Write(b)
}

func readUUID(r io.Reader) (uuid.UUID, error) {
	var b [16]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	if err := u.UnmarshalBinary(b[:]); err != nil {
		return uuid.UUID{}, err
	}
	return u, nil
}

func writeDecimal(buf *bytes.Buffer, d money.Decimal) {
	b, _ := d.MarshalBinary()
	buf.WriteByte(byte(len(b)))
	buf.Write(b)
}

func readDecimal(r io.Reader) (money.Decimal, error) {
	var lenByte [1]byte
	if _, err := io.ReadFull(r, lenByte[:]); err != nil {
		return money.Decimal{}, err
	}
	data := make([]byte, lenByte[0])
	if _, err := io.ReadFull(r, data); err != nil {
		return money.Decimal{}, err
	}
	var d money.Decimal
	if err := d.UnmarshalBinary(data); err != nil {
		return money.Decimal{}, err
	}
	return d, nil
}

func writeOptionalDecimal(buf *bytes.Buffer, d money.Decimal, has bool) {
	writeBool(buf, has)
	if has {
		writeDecimal(buf, d)
	}
}

func readOptionalDecimal(r io.Reader) (money.Decimal, bool, error) {
	has, err := readBool(r)
	if err != nil || !has {
		return money.Decimal{}, false, err
	}
	d, err := readDecimal(r)
	return d, true, err
}

func encodeOrder(buf *bytes.Buffer, o types.Order) {
	writeUUID(buf, uuid.UUID(o.ID))
	writeString(buf, string(o.Symbol))
	buf.WriteByte(byte(o.Side))
	buf.WriteByte(byte(o.OrderType))
	writeBool(buf, o.HasPrice)
	writeDecimal(buf, o.Price)
	writeDecimal(buf, o.Quantity)
	writeDecimal(buf, o.FilledQuantity)
	buf.WriteByte(byte(o.Status))
	writeString(buf, o.UserID)
	writeI64(buf, o.TimestampNano)
	buf.WriteByte(byte(o.TIF))
	buf.WriteByte(byte(o.STP))
	writeBool(buf, o.PostOnly)
	writeBool(buf, o.HasExpireTime)
	writeI64(buf, o.ExpireTimeNano)

	writeBool(buf, o.Iceberg != nil)
	if o.Iceberg != nil {
		ic := o.Iceberg
		writeDecimal(buf, ic.TotalQuantity)
		writeDecimal(buf, ic.DisplayQuantity)
		writeDecimal(buf, ic.HiddenQuantity)
		writeDecimal(buf, ic.ReplenishThreshold)
		writeDecimal(buf, ic.DisplayVariance)
		writeDecimal(buf, ic.TargetDisplayQuantity)
	}
	writeString(buf, o.ClientOrderID)
}

func decodeOrder(r *bytes.Reader) (types.Order, error) {
	var o types.Order
	u, err := readUUID(r)
	if err != nil {
		return o, err
	}
	o.ID = ids.OrderID(u)

	sym, err := readString(r)
	if err != nil {
		return o, err
	}
	o.Symbol = types.Symbol(sym)

	side, err := r.ReadByte()
	if err != nil {
		return o, err
	}
	o.Side = types.Side(side)

	ot, err := r.ReadByte()
	if err != nil {
		return o, err
	}
	o.OrderType = types.OrderType(ot)

	if o.HasPrice, err = readBool(r); err != nil {
		return o, err
	}
	if o.Price, err = readDecimal(r); err != nil {
		return o, err
	}
	if o.Quantity, err = readDecimal(r); err != nil {
		return o, err
	}
	if o.FilledQuantity, err = readDecimal(r); err != nil {
		return o, err
	}

	status, err := r.ReadByte()
	if err != nil {
		return o, err
	}
	o.Status = types.OrderStatus(status)

	if o.UserID, err = readString(r); err != nil {
		return o, err
	}
	if o.TimestampNano, err = readI64(r); err != nil {
		return o, err
	}

	tif, err := r.ReadByte()
	if err != nil {
		return o, err
	}
	o.TIF = types.TimeInForce(tif)

	stp, err := r.ReadByte()
	if err != nil {
		return o, err
	}
	o.STP = types.STPMode(stp)

	if o.PostOnly, err = readBool(r); err != nil {
		return o, err
	}
	if o.HasExpireTime, err = readBool(r); err != nil {
		return o, err
	}
	if o.ExpireTimeNano, err = readI64(r); err != nil {
		return o, err
	}

	hasIceberg, err := readBool(r)
	if err != nil {
		return o, err
	}
	if hasIceberg {
		ic := &types.IcebergConfig{}
		if ic.TotalQuantity, err = readDecimal(r); err != nil {
			return o, err
		}
		if ic.DisplayQuantity, err = readDecimal(r); err != nil {
			return o, err
		}
		if ic.HiddenQuantity, err = readDecimal(r); err != nil {
			return o, err
		}
		if ic.ReplenishThreshold, err = readDecimal(r); err != nil {
			return o, err
		}
		if ic.DisplayVariance, err = readDecimal(r); err != nil {
			return o, err
		}
		if ic.TargetDisplayQuantity, err = readDecimal(r); err != nil {
			return o, err
		}
		o.Iceberg = ic
	}

	o.ClientOrderID, err = readString(r)
	return o, err
}

func encodeStopOrder(buf *bytes.Buffer, s types.StopOrder) {
	writeUUID(buf, uuid.UUID(s.ID))
	writeString(buf, string(s.Symbol))
	writeString(buf, s.UserID)
	buf.WriteByte(byte(s.Side))
	writeDecimal(buf, s.Quantity)
	writeDecimal(buf, s.TriggerPrice)
	buf.WriteByte(byte(s.TriggerCondition))
	buf.WriteByte(byte(s.StopType))

	writeOptionalDecimal(buf, s.LimitPrice, s.HasLimitPrice)
	writeOptionalDecimal(buf, s.TrailAmount, s.HasTrailAmount)
	writeOptionalDecimal(buf, s.TrailPercent, s.HasTrailPercent)
	writeOptionalDecimal(buf, s.HighestSeen, s.HasHighestSeen)
	writeOptionalDecimal(buf, s.LowestSeen, s.HasLowestSeen)

	writeI64(buf, s.CreatedAtNano)
	writeBool(buf, s.HasExpireTime)
	writeI64(buf, s.ExpireTimeNano)
	buf.WriteByte(byte(s.Status))
	buf.WriteByte(byte(s.TIF))
	buf.WriteByte(byte(s.STP))
	writeBool(buf, s.PostOnly)
}

func decodeStopOrder(r *bytes.Reader) (types.StopOrder, error) {
	var s types.StopOrder
	u, err := readUUID(r)
	if err != nil {
		return s, err
	}
	s.ID = ids.StopOrderID(u)

	sym, err := readString(r)
	if err != nil {
		return s, err
	}
	s.Symbol = types.Symbol(sym)
	if s.UserID, err = readString(r); err != nil {
		return s, err
	}

	side, err := r.ReadByte()
	if err != nil {
		return s, err
	}
	s.Side = types.Side(side)

	if s.Quantity, err = readDecimal(r); err != nil {
		return s, err
	}
	if s.TriggerPrice, err = readDecimal(r); err != nil {
		return s, err
	}

	cond, err := r.ReadByte()
	if err != nil {
		return s, err
	}
	s.TriggerCondition = types.TriggerCondition(cond)

	st, err := r.ReadByte()
	if err != nil {
		return s, err
	}
	s.StopType = types.StopType(st)

	if s.LimitPrice, s.HasLimitPrice, err = readOptionalDecimal(r); err != nil {
		return s, err
	}
	if s.TrailAmount, s.HasTrailAmount, err = readOptionalDecimal(r); err != nil {
		return s, err
	}
	if s.TrailPercent, s.HasTrailPercent, err = readOptionalDecimal(r); err != nil {
		return s, err
	}
	if s.HighestSeen, s.HasHighestSeen, err = readOptionalDecimal(r); err != nil {
		return s, err
	}
	if s.LowestSeen, s.HasLowestSeen, err = readOptionalDecimal(r); err != nil {
		return s, err
	}

	if s.CreatedAtNano, err = readI64(r); err != nil {
		return s, err
	}
	if s.HasExpireTime, err = readBool(r); err != nil {
		return s, err
	}
	if s.ExpireTimeNano, err = readI64(r); err != nil {
		return s, err
	}

	status, err := r.ReadByte()
	if err != nil {
		return s, err
	}
	s.Status = types.StopStatus(status)

	tif, err := r.ReadByte()
	if err != nil {
		return s, err
	}
	s.TIF = types.TimeInForce(tif)

	stp, err := r.ReadByte()
	if err != nil {
		return s, err
	}
	s.STP = types.STPMode(stp)

	s.PostOnly, err = readBool(r)
	return s, err
}
