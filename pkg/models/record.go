package models

// Record is a single inventory line item as returned by the data source.
// Nullable columns are pointers; a nil value reads as an empty string.
type Record struct {
	Container   string   `json:"container" db:"container"`
	Rack        string   `json:"rack" db:"rack"`
	Level       string   `json:"level" db:"level"`
	ItemCode    *string  `json:"item_code" db:"item_code"`
	Description *string  `json:"description" db:"description"`
	UOM         string   `json:"uom" db:"uom"`
	Quantity    *float64 `json:"quantity" db:"quantity"`
	Department  *string  `json:"department" db:"department"`
}

func (r Record) ItemCodeValue() string {
	return deref(r.ItemCode)
}

func (r Record) DescriptionValue() string {
	return deref(r.Description)
}

// QuantityValue returns the quantity and whether the source had one.
func (r Record) QuantityValue() (float64, bool) {
	if r.Quantity == nil {
		return 0, false
	}
	return *r.Quantity, true
}

func (r Record) DepartmentValue() string {
	return deref(r.Department)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
