package infer

// Country pairs a display name with its ISO 3166-1 alpha-2 code. The code is
// what the flag-emoji lookup is derived from.
type Country struct {
	Code string
	Name string
}

// Countries is the fixed lookup table for destination inference. Order
// matters: rules scan it front to back, so the result for a name mentioning
// two countries is stable across calls.
var Countries = []Country{
	// Americas
	{"US", "United States"},
	{"CA", "Canada"},
	{"MX", "Mexico"},
	{"BR", "Brazil"},
	{"AR", "Argentina"},
	{"CL", "Chile"},
	{"CO", "Colombia"},
	{"PE", "Peru"},
	{"VE", "Venezuela"},
	{"EC", "Ecuador"},

	// Europe
	{"GB", "United Kingdom"},
	{"FR", "France"},
	{"IT", "Italy"},
	{"ES", "Spain"},
	{"DE", "Germany"},
	{"NL", "Netherlands"},
	{"PT", "Portugal"},
	{"GR", "Greece"},
	{"TR", "Turkey"},
	{"RU", "Russia"},
	{"PL", "Poland"},
	{"CZ", "Czech Republic"},
	{"HU", "Hungary"},
	{"AT", "Austria"},
	{"CH", "Switzerland"},
	{"BE", "Belgium"},
	{"DK", "Denmark"},
	{"SE", "Sweden"},
	{"NO", "Norway"},
	{"FI", "Finland"},
	{"IE", "Ireland"},
	{"IS", "Iceland"},
	{"RO", "Romania"},
	{"BG", "Bulgaria"},
	{"HR", "Croatia"},
	{"SI", "Slovenia"},

	// Asia
	{"CN", "China"},
	{"JP", "Japan"},
	{"KR", "South Korea"},
	{"IN", "India"},
	{"TH", "Thailand"},
	{"SG", "Singapore"},
	{"MY", "Malaysia"},
	{"ID", "Indonesia"},
	{"VN", "Vietnam"},
	{"PH", "Philippines"},
	{"PK", "Pakistan"},
	{"BD", "Bangladesh"},
	{"LK", "Sri Lanka"},
	{"MM", "Myanmar"},
	{"KH", "Cambodia"},
	{"LA", "Laos"},

	// Middle East
	{"AE", "United Arab Emirates"},
	{"SA", "Saudi Arabia"},
	{"QA", "Qatar"},
	{"KW", "Kuwait"},
	{"BH", "Bahrain"},
	{"OM", "Oman"},
	{"JO", "Jordan"},
	{"LB", "Lebanon"},
	{"IL", "Israel"},
	{"IR", "Iran"},
	{"IQ", "Iraq"},

	// Africa
	{"ZA", "South Africa"},
	{"EG", "Egypt"},
	{"MA", "Morocco"},
	{"KE", "Kenya"},
	{"TZ", "Tanzania"},
	{"ET", "Ethiopia"},
	{"NG", "Nigeria"},
	{"GH", "Ghana"},
	{"TN", "Tunisia"},
	{"DZ", "Algeria"},

	// Oceania
	{"AU", "Australia"},
	{"NZ", "New Zealand"},
	{"FJ", "Fiji"},
	{"PG", "Papua New Guinea"},
}

// cityEntry maps a well-known city to its country.
type cityEntry struct {
	City    string
	Country string
}

// cities lists the major cities of popular destinations. Scanned in order,
// like Countries.
var cities = []cityEntry{
	{"New York", "United States"},
	{"Los Angeles", "United States"},
	{"Chicago", "United States"},
	{"Miami", "United States"},
	{"San Francisco", "United States"},
	{"São Paulo", "Brazil"},
	{"Rio de Janeiro", "Brazil"},
	{"Brasília", "Brazil"},
	{"Salvador", "Brazil"},
	{"Fortaleza", "Brazil"},
	{"Mumbai", "India"},
	{"Delhi", "India"},
	{"Bangalore", "India"},
	{"Hyderabad", "India"},
	{"Chennai", "India"},
	{"Beijing", "China"},
	{"Shanghai", "China"},
	{"Guangzhou", "China"},
	{"Shenzhen", "China"},
	{"Chengdu", "China"},
	{"London", "United Kingdom"},
	{"Manchester", "United Kingdom"},
	{"Birmingham", "United Kingdom"},
	{"Liverpool", "United Kingdom"},
	{"Edinburgh", "United Kingdom"},
	{"Paris", "France"},
	{"Lyon", "France"},
	{"Marseille", "France"},
	{"Toulouse", "France"},
	{"Nice", "France"},
	{"Rome", "Italy"},
	{"Milan", "Italy"},
	{"Naples", "Italy"},
	{"Turin", "Italy"},
	{"Palermo", "Italy"},
	{"Madrid", "Spain"},
	{"Barcelona", "Spain"},
	{"Valencia", "Spain"},
	{"Seville", "Spain"},
	{"Bilbao", "Spain"},
	{"Berlin", "Germany"},
	{"Munich", "Germany"},
	{"Hamburg", "Germany"},
	{"Frankfurt", "Germany"},
	{"Cologne", "Germany"},
	{"Tokyo", "Japan"},
	{"Osaka", "Japan"},
	{"Yokohama", "Japan"},
	{"Nagoya", "Japan"},
	{"Sapporo", "Japan"},
	{"Sydney", "Australia"},
	{"Melbourne", "Australia"},
	{"Brisbane", "Australia"},
	{"Perth", "Australia"},
	{"Adelaide", "Australia"},
	{"Karachi", "Pakistan"},
	{"Lahore", "Pakistan"},
	{"Islamabad", "Pakistan"},
	{"Faisalabad", "Pakistan"},
	{"Rawalpindi", "Pakistan"},
	{"Toronto", "Canada"},
	{"Vancouver", "Canada"},
	{"Montreal", "Canada"},
	{"Calgary", "Canada"},
	{"Ottawa", "Canada"},
	{"Mexico City", "Mexico"},
	{"Guadalajara", "Mexico"},
	{"Monterrey", "Mexico"},
	{"Puebla", "Mexico"},
	{"Tijuana", "Mexico"},
	{"Buenos Aires", "Argentina"},
	{"Córdoba", "Argentina"},
	{"Rosario", "Argentina"},
	{"Mendoza", "Argentina"},
	{"Tucumán", "Argentina"},
	{"Bangkok", "Thailand"},
	{"Chiang Mai", "Thailand"},
	{"Pattaya", "Thailand"},
	{"Phuket", "Thailand"},
	{"Hua Hin", "Thailand"},
	{"Dubai", "United Arab Emirates"},
	{"Abu Dhabi", "United Arab Emirates"},
	{"Sharjah", "United Arab Emirates"},
	{"Ajman", "United Arab Emirates"},
	{"Ras Al Khaimah", "United Arab Emirates"},
	{"Istanbul", "Turkey"},
	{"Ankara", "Turkey"},
	{"Izmir", "Turkey"},
	{"Bursa", "Turkey"},
	{"Antalya", "Turkey"},
	{"Athens", "Greece"},
	{"Thessaloniki", "Greece"},
	{"Patras", "Greece"},
	{"Heraklion", "Greece"},
	{"Larissa", "Greece"},
	{"Lisbon", "Portugal"},
	{"Porto", "Portugal"},
	{"Braga", "Portugal"},
	{"Coimbra", "Portugal"},
	{"Faro", "Portugal"},
	{"Amsterdam", "Netherlands"},
	{"Rotterdam", "Netherlands"},
	{"The Hague", "Netherlands"},
	{"Utrecht", "Netherlands"},
	{"Eindhoven", "Netherlands"},
}

// FlagEmoji returns the flag emoji for an ISO 3166-1 alpha-2 code by mapping
// each letter onto the regional indicator symbol block.
func FlagEmoji(code string) string {
	runes := make([]rune, 0, 2)
	for _, c := range code {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return ""
		}
		runes = append(runes, 0x1F1E6+c-'A')
	}
	return string(runes)
}
