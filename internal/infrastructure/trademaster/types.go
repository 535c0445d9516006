package trademaster

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// text tolerates the ERP's habit of sending the same field as either a
// JSON string or a bare number
type text string

// UnmarshalJSON implements json.Unmarshaler
func (t *text) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	if string(b) == "null" {
		*t = ""
		return nil
	}
	*t = text(b)
	return nil
}

// String returns the trimmed field value
func (t text) String() string {
	return strings.TrimSpace(string(t))
}

// Decimal parses the field as a decimal, tolerating comma separators and
// empty values
func (t text) Decimal() decimal.Decimal {
	s := strings.ReplaceAll(t.String(), ",", ".")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Int parses the field as an integer, zero on failure
func (t text) Int() int {
	return int(t.Decimal().IntPart())
}

// URLDecoded returns the field after URL-decoding, as the ERP ships
// descriptions percent-encoded
func (t text) URLDecoded() string {
	decoded, err := url.QueryUnescape(t.String())
	if err != nil {
		return t.String()
	}
	return decoded
}

// Time parses the field with the ERP's date layouts
func (t text) Time() time.Time {
	s := t.String()
	for _, layout := range []string{
		"02.01.2006 15:04:05",
		"02.01.2006 15:04",
		"2006-01-02 15:04:05",
		"02.01.2006",
	} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// categoryRow is one row of the catalog/list feed
type categoryRow struct {
	ID          text `json:"idZvena"`
	Parent      text `json:"idParent"`
	Title       text `json:"nameZvena"`
	SortOrder   text `json:"poryadok"`
	Description text `json:"opisanie"`
	Address     text `json:"link"`
	Field1      text `json:"ind1"`
	Field2      text `json:"ind2"`
	Field3      text `json:"ind3"`
	Photo       text `json:"foto"`
}

// itemCountRow is the item/count response
type itemCountRow struct {
	Count text `json:"count"`
}

// productRow is one row of the item/list feed
type productRow struct {
	ID           text `json:"idTovar"`
	Category     text `json:"vStrukture"`
	Title        text `json:"name"`
	SortOrder    text `json:"poryadok"`
	Description  text `json:"opisanie"`
	Extra        text `json:"opisanieDop"`
	Address      text `json:"link"`
	Field1       text `json:"ind1"`
	Field2       text `json:"ind2"`
	Field3       text `json:"ind3"`
	Field4       text `json:"ind4"`
	Field5       text `json:"ind5"`
	VendorCode   text `json:"artikul"`
	Barcode      text `json:"strihKod"`
	PriceFirst   text `json:"sebestomost"`
	Price        text `json:"price"`
	Wholesale    text `json:"opt_price"`
	Unit         text `json:"edIzmer"`
	Weight       text `json:"ves"`
	Country      text `json:"strana"`
	Manufacturer text `json:"proizv"`
	Tags         text `json:"tags"`
	ChangeDate   text `json:"changeDate"`
	Stock        text `json:"kolvo"`
	Photo        text `json:"foto"`
}

// relationRow is one pair of the item/related feed
type relationRow struct {
	Product  text `json:"idTovar1"`
	Related  text `json:"idTovar2"`
	Quantity text `json:"kolvo"`
}

// orderResponseRow is the order submission response
type orderResponseRow struct {
	Number text `json:"nomerZakaza"`
}
