package models

// NotAvailable is the placeholder stored for features a listing does not
// advertise. Downstream cleaning expects every column to be present, so
// missing values are never left empty.
const NotAvailable = "N/A"

// Listing holds one scraped rental advertisement, fields kept exactly as
// displayed on the site (currency formatting, m² suffix, etc.).
type Listing struct {
	Price    string `json:"preco_anuncio"`
	Address  string `json:"endereco"`
	Area     string `json:"area_util_m2"`
	Bedrooms string `json:"quartos"`
	Suites   string `json:"suites"`
	Parking  string `json:"vagas"`
	URL      string `json:"url"`
}
