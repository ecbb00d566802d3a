package dto

type ResolveAddressRequest struct {
	Address string `json:"address"`
}

type ResolveAddressBatchRequest struct {
	Addresses []string `json:"addresses"`
}

type AddressResponse struct {
	ID               string  `json:"id"`
	OfficialLabel    string  `json:"official_label"`
	StreetName       string  `json:"street_name"`
	StreetNumber     string  `json:"street_number"`
	Postcode         string  `json:"postcode"`
	City             string  `json:"city"`
	Longitude        float64 `json:"longitude"`
	Latitude         float64 `json:"latitude"`
	DoorCode         string  `json:"door_code,omitempty"`
	HasMailboxAccess bool    `json:"has_mailbox_access"`
	DriverNotes      string  `json:"driver_notes,omitempty"`
}

type ResolveAddressResponse struct {
	Found   bool             `json:"found"`
	Source  string           `json:"source"`
	Address *AddressResponse `json:"address,omitempty"`
}

type DriverDataRequest struct {
	AddressID        string `json:"address_id"`
	DoorCode         string `json:"door_code"`
	HasMailboxAccess bool   `json:"has_mailbox_access"`
	DriverNotes      string `json:"driver_notes"`
}
