package domain

// Address is the structured postal address attached to a user profile.
type Address struct {
	Name            string         `json:"name"`
	AddressAddition *string        `json:"address_addition,omitempty"`
	ZipCode         string         `json:"zip_code"`
	City            string         `json:"city"`
	Country         string         `json:"country"`
	Lat             float64        `json:"lat"`
	Lng             float64        `json:"lng"`
	ExtraData       map[string]any `json:"extra_data,omitempty"`
}

// Map renders the address as a generic mapping for RPC calls. A nil
// address yields an empty map so remote services always receive an object.
func (a *Address) Map() map[string]any {
	if a == nil {
		return map[string]any{}
	}
	m := map[string]any{
		"name":     a.Name,
		"zip_code": a.ZipCode,
		"city":     a.City,
		"country":  a.Country,
		"lat":      a.Lat,
		"lng":      a.Lng,
	}
	if a.AddressAddition != nil {
		m["address_addition"] = *a.AddressAddition
	}
	if len(a.ExtraData) > 0 {
		m["extra_data"] = a.ExtraData
	}
	return m
}
