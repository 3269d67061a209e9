package deals

import (
	"net/url"
	"time"
)

type bookingSite struct {
	base       string
	cabins     map[Cabin]string
	fallback   string
	dateLayout string
	params     func(a *Award, cabin, date string) url.Values
}

var bookingSites = map[string]bookingSite{
	"aa": {
		base: "https://www.aa.com/booking/find-flights",
		cabins: map[Cabin]string{
			CabinEconomy: "COACH", CabinPremiumEconomy: "PREMIUM_ECONOMY",
			CabinBusiness: "BUSINESS", CabinFirst: "FIRST",
		},
		fallback:   "BUSINESS",
		dateLayout: time.DateOnly,
		params: func(a *Award, cabin, date string) url.Values {
			return url.Values{
				"originAirport":      {a.Flight.Origin},
				"destinationAirport": {a.Flight.Destination},
				"departureDate":      {date},
				"tripType":           {"OneWay"},
				"cabinType":          {cabin},
				"awardTravel":        {"true"},
				"passengers":         {"1"},
			}
		},
	},
	"united": {
		base: "https://www.united.com/en/us/fsr/choose-flights",
		cabins: map[Cabin]string{
			CabinEconomy: "economy", CabinPremiumEconomy: "premium-economy",
			CabinBusiness: "business", CabinFirst: "first",
		},
		fallback:   "business",
		dateLayout: time.DateOnly,
		params: func(a *Award, cabin, date string) url.Values {
			return url.Values{
				"f": {a.Flight.Origin}, "t": {a.Flight.Destination}, "d": {date},
				"tt": {"1"}, "ct": {cabin}, "px": {"1"}, "taxng": {"1"},
				"idx": {"1"}, "st": {"bestmatches"}, "at": {"1"},
			}
		},
	},
	"delta": {
		base: "https://www.delta.com/flight-search/book-a-flight",
		cabins: map[Cabin]string{
			CabinEconomy: "MAIN", CabinPremiumEconomy: "PREMIUM_SELECT",
			CabinBusiness: "DELTA_ONE", CabinFirst: "FIRST",
		},
		fallback:   "DELTA_ONE",
		dateLayout: "20060102",
		params: func(a *Award, cabin, date string) url.Values {
			return url.Values{
				"action":          {"findFlights"},
				"tripType":        {"ONE_WAY"},
				"priceSchedule":   {"price"},
				"paxCount":        {"1"},
				"searchByCabin":   {"true"},
				"cabinFareClass":  {cabin},
				"awardTravel":     {"true"},
				"departureDate":   {date},
				"originCity":      {a.Flight.Origin},
				"destinationCity": {a.Flight.Destination},
			}
		},
	},
	"aeroplan": {
		base: "https://www.aircanada.com/aeroplan/redeem/availability/outbound",
		cabins: map[Cabin]string{
			CabinEconomy: "economy", CabinPremiumEconomy: "premium-economy",
			CabinBusiness: "business", CabinFirst: "first",
		},
		fallback:   "business",
		dateLayout: time.DateOnly,
		params: func(a *Award, cabin, date string) url.Values {
			return url.Values{
				"org0": {a.Flight.Origin}, "dest0": {a.Flight.Destination},
				"departureDate0": {date},
				"ADT":            {"1"}, "YTH": {"0"}, "CHD": {"0"}, "INF": {"0"}, "INS": {"0"},
				"tripType":       {"O"},
				"marketCode":     {"INT"},
				"cabinClass":     {cabin},
				"awardBooking":   {"true"},
			}
		},
	},
	"alaska": {
		base: "https://www.alaskaair.com/search/results",
		// Alaska sells partner business as "First".
		cabins: map[Cabin]string{
			CabinEconomy: "Coach", CabinPremiumEconomy: "PremiumClass",
			CabinBusiness: "First", CabinFirst: "First",
		},
		fallback:   "First",
		dateLayout: "01/02/2006",
		params: func(a *Award, cabin, date string) url.Values {
			return url.Values{
				"O": {a.Flight.Origin}, "D": {a.Flight.Destination}, "OD": {date},
				"A": {"1"}, "C": {"0"}, "IR": {"1"}, "FT": {cabin},
			}
		},
	},
	"ba": {
		base: "https://www.britishairways.com/travel/redeem/execclub/_gf/en_us",
		cabins: map[Cabin]string{
			CabinEconomy: "M", CabinPremiumEconomy: "W",
			CabinBusiness: "J", CabinFirst: "F",
		},
		fallback:   "J",
		dateLayout: "20060102",
		params: func(a *Award, cabin, date string) url.Values {
			return url.Values{
				"eId": {"111099"}, "from": {a.Flight.Origin}, "to": {a.Flight.Destination},
				"depDate": {date}, "cabin": {cabin},
				"adult": {"1"}, "child": {"0"}, "infant": {"0"},
				"redemption": {"AVIOS_PART_PAY"},
			}
		},
	},
}

var bookingAliases = map[string]string{
	"ba_avios": "ba",
}

// BookingURL builds a deep link to the program's award search. ok is false
// for programs without a known booking page.
func BookingURL(a *Award) (string, bool) {
	if a == nil {
		return "", false
	}
	code := a.Program
	if alias, ok := bookingAliases[code]; ok {
		code = alias
	}
	site, ok := bookingSites[code]
	if !ok {
		return "", false
	}

	cabin, ok := site.cabins[a.Cabin]
	if !ok {
		cabin = site.fallback
	}
	date := a.Flight.Departure.Format(site.dateLayout)

	return site.base + "?" + site.params(a, cabin, date).Encode(), true
}

// BookingURLDisplay returns the booking link or a hint to book on the
// program's own site.
func BookingURLDisplay(a *Award) string {
	if u, ok := BookingURL(a); ok {
		return u
	}
	return "[Visit " + a.Program + " website to book]"
}
