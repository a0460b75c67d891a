package dto

type GeoLookupResponse struct {
	IP          string `json:"ip"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	City        string `json:"city"`
	ISP         string `json:"isp,omitempty"`
	Flag        string `json:"flag,omitempty"`
}
