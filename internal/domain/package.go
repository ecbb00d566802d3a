package domain

// GeocodeQualityGood is the upstream quality flag value that marks a
// feed-supplied geocoded address as trustworthy.
const GeocodeQualityGood = "Bon"

// FeedPackage is one raw parcel record from the upstream courier feed.
// Geocoded fields are only usable when GeocodeQuality is GeocodeQualityGood;
// the Original* fields always carry the address as entered by the sender.
type FeedPackage struct {
	TrackingID          string  `json:"tracking_id"`
	CustomerName        string  `json:"customer_name"`
	CustomerPhone       string  `json:"customer_phone"`
	CustomerIndication  string  `json:"customer_indication"`
	GeocodeStreetNumber string  `json:"geocode_street_number"`
	GeocodeStreetName   string  `json:"geocode_street_name"`
	GeocodePostcode     string  `json:"geocode_postcode"`
	GeocodeQuality      string  `json:"geocode_quality"`
	OriginalStreetName  string  `json:"original_street_name"`
	OriginalPostcode    string  `json:"original_postcode"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	Status              string  `json:"status"`
}

// OriginalAddress returns the display address for packages whose upstream
// geocoding cannot be trusted.
func (p *FeedPackage) OriginalAddress() string {
	if p.OriginalStreetName == "" {
		return p.GeocodeStreetName
	}
	if p.OriginalPostcode == "" {
		return p.OriginalStreetName
	}
	return p.OriginalStreetName + " " + p.OriginalPostcode
}

// ProcessedPackage is a feed parcel after address resolution. Problematic
// packages keep their original address for display and are never matched
// against reference data.
type ProcessedPackage struct {
	ID                 string
	Tracking           string
	CustomerName       string
	PhoneNumber        string
	CustomerIndication string
	OfficialLabel      string
	AddressID          string
	Coordinates        Coordinates
	MailboxAccess      bool
	DriverNotes        string
	IsProblematic      bool
	Status             string
}
