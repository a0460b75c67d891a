package model

type GeoLocation struct {
	IP          string
	Country     string
	CountryCode string
	City        string
	ISP         string
	Flag        string
}
