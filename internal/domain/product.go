package domain

import "encoding/json"

// Product is a catalog entry.
type Product struct {
	ID          ID      `json:"_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageRef    string  `json:"image_src"`
}

// UnmarshalJSON accepts either "_id" or "id" as the identifier.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var aux struct {
		plain
		AltID ID `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Product(aux.plain)
	if p.ID == "" {
		p.ID = aux.AltID
	}
	return nil
}
