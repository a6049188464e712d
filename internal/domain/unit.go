package domain

// RateOption is a priced offer attached to a unit for the confirmed stay.
// TotalPrice is always recomputed from AvgNightlyRate and Nights on the way
// in; a server-supplied total is never trusted.
type RateOption struct {
	RateID         int     `json:"rateId"`
	RateName       string  `json:"rateName"`
	Currency       string  `json:"currency"`
	CurrencySymbol string  `json:"currencySymbol"`
	TotalPrice     float64 `json:"totalPrice"`
	AvgNightlyRate float64 `json:"avgNightlyRate"`
	Nights         int     `json:"nights"`
	Description    string  `json:"description,omitempty"`
}

// Unit is a bookable accommodation type within a building. Produced fresh by
// each search and discarded by the next one.
type Unit struct {
	BuildingID        int          `json:"buildingId"`
	BuildingName      string       `json:"buildingName"`
	InventoryTypeID   int          `json:"inventoryTypeId"`
	InventoryTypeName string       `json:"inventoryTypeName"`
	Rates             []RateOption `json:"rates"`
}

// PropertyName is the display label used on payment and confirmation
// summaries.
func (u Unit) PropertyName() string {
	return u.BuildingName + " - " + u.InventoryTypeName
}

// SelectedUnit is a unit together with the one rate the guest chose.
type SelectedUnit struct {
	Unit
	SelectedRate RateOption `json:"selectedRate"`
}
