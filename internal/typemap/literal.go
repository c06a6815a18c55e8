package typemap

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func integerLiteral(v any) string {
	return fmt.Sprintf("%d", v)
}

func floatLiteral(v any) string {
	switch f := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(f), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(f, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func stringLiteral(v any) string {
	return quote(fmt.Sprintf("%v", v))
}

func unicodeStringLiteral(v any) string {
	return "N" + stringLiteral(v)
}

func bitLiteral(v any) string {
	if b, _ := v.(bool); b {
		return "CAST(1 AS bit)"
	}
	return "CAST(0 AS bit)"
}

func integerBoolLiteral(v any) string {
	if b, _ := v.(bool); b {
		return "1"
	}
	return "0"
}

func hexBytesLiteral(v any) string {
	b, _ := v.([]byte)
	return "0x" + strings.ToUpper(hex.EncodeToString(b))
}

func blobLiteral(v any) string {
	b, _ := v.([]byte)
	return "X'" + strings.ToUpper(hex.EncodeToString(b)) + "'"
}

func timeLiteral(layout string) LiteralFunc {
	return func(v any) string {
		t, _ := v.(time.Time)
		return quote(t.Format(layout))
	}
}

func decimalLiteral(v any) string {
	d, _ := v.(decimal.Decimal)
	return d.String()
}

func uuidLiteral(v any) string {
	u, _ := v.(uuid.UUID)
	return quote(u.String())
}
