package grid

import (
	"errors"
	"strconv"

	"imsystem/pkg/models"
)

var ErrUnknownColumn = errors.New("unknown column")

type Alignment string

const (
	AlignLeft  Alignment = "left"
	AlignRight Alignment = "right"
)

type Column struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Align Alignment `json:"align"`
}

// Columns lists the rendered table columns in display order.
var Columns = []Column{
	{Key: "container", Label: "Container", Align: AlignLeft},
	{Key: "rack", Label: "Rack", Align: AlignLeft},
	{Key: "level", Label: "Level", Align: AlignLeft},
	{Key: "item_code", Label: "Item Code", Align: AlignLeft},
	{Key: "description", Label: "Description", Align: AlignLeft},
	{Key: "uom", Label: "UOM", Align: AlignLeft},
	{Key: "quantity", Label: "Quantity", Align: AlignRight},
}

// LookupColumn returns the column registered under key.
func LookupColumn(key string) (Column, error) {
	for _, c := range Columns {
		if c.Key == key {
			return c, nil
		}
	}
	return Column{}, ErrUnknownColumn
}

// value is a record attribute as seen by the comparator: either a number
// or a string. Missing attributes are the empty string.
type value struct {
	num     float64
	str     string
	numeric bool
}

func (v value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

func field(r models.Record, key string) value {
	switch key {
	case "container":
		return value{str: r.Container}
	case "rack":
		return value{str: r.Rack}
	case "level":
		return value{str: r.Level}
	case "item_code":
		return value{str: r.ItemCodeValue()}
	case "description":
		return value{str: r.DescriptionValue()}
	case "uom":
		return value{str: r.UOM}
	case "quantity":
		q, ok := r.QuantityValue()
		if !ok {
			return value{}
		}
		return value{num: q, numeric: true}
	case "department":
		return value{str: r.DepartmentValue()}
	default:
		return value{}
	}
}

// Cells renders a record as display strings in column order.
func Cells(r models.Record) []string {
	cells := make([]string, len(Columns))
	for i, c := range Columns {
		cells[i] = field(r, c.Key).String()
	}
	return cells
}
