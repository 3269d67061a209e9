package portfolio

// DefaultTransferRules returns the built-in transferable currency partners.
// Every call returns a fresh copy.
func DefaultTransferRules() []TransferRule {
	oneToOne := func(partners ...string) []PartnerRatio {
		out := make([]PartnerRatio, 0, len(partners))
		for _, p := range partners {
			out = append(out, PartnerRatio{Partner: p, Ratio: 1.0})
		}
		return out
	}

	return []TransferRule{
		{Source: "chase_ur", Partners: oneToOne(
			"united", "aeroplan", "virgin_atlantic", "ba_avios", "hyatt",
			"southwest", "iberia", "flying_blue", "singapore",
		)},
		{Source: "amex_mr", Partners: oneToOne(
			"delta", "ana", "virgin_atlantic", "ba_avios", "singapore",
			"cathay", "flying_blue", "emirates", "etihad", "avianca",
		)},
		{Source: "cap_one", Partners: oneToOne(
			"turkish", "avianca", "flying_blue", "ba_avios", "virgin_atlantic",
			"singapore", "emirates", "etihad", "finnair", "qantas",
		)},
		{Source: "bilt", Partners: oneToOne(
			"aa", "united", "aeroplan", "virgin_atlantic", "turkish",
			"flying_blue", "alaska", "emirates", "cathay",
		)},
		{Source: "citi_typ", Partners: oneToOne(
			"turkish", "singapore", "virgin_atlantic", "flying_blue", "cathay",
			"qantas", "etihad", "thai", "eva",
		)},
	}
}

// DefaultValuations returns conservative cents-per-point estimates.
func DefaultValuations() map[string]float64 {
	return map[string]float64{
		"chase_ur":        1.5,
		"amex_mr":         1.5,
		"cap_one":         1.5,
		"bilt":            1.8,
		"citi_typ":        1.5,
		"aa":              1.5,
		"united":          1.4,
		"delta":           1.2,
		"aeroplan":        1.8,
		"alaska":          1.8,
		"ba_avios":        1.5,
		"virgin_atlantic": 1.8,
		"ana":             2.0,
		"singapore":       1.8,
		"cathay":          1.6,
		"flying_blue":     1.4,
		"turkish":         1.8,
		"emirates":        1.3,
		"etihad":          1.5,
		"qantas":          1.5,
		"jal":             1.6,
		"hyatt":           2.0,
		"southwest":       1.4,
		"iberia":          1.4,
		"avianca":         1.6,
	}
}

// DefaultProgramNames maps airline and hotel program codes to display names.
func DefaultProgramNames() map[string]string {
	return map[string]string{
		"aa":              "American AAdvantage",
		"united":          "United MileagePlus",
		"delta":           "Delta SkyMiles",
		"aeroplan":        "Air Canada Aeroplan",
		"alaska":          "Alaska Mileage Plan",
		"ba_avios":        "British Airways Avios",
		"virgin_atlantic": "Virgin Atlantic Flying Club",
		"ana":             "ANA Mileage Club",
		"singapore":       "Singapore KrisFlyer",
		"cathay":          "Cathay Pacific Asia Miles",
		"flying_blue":     "Air France/KLM Flying Blue",
		"turkish":         "Turkish Miles&Smiles",
		"emirates":        "Emirates Skywards",
		"etihad":          "Etihad Guest",
		"qantas":          "Qantas Frequent Flyer",
		"jal":             "Japan Airlines Mileage Bank",
		"hyatt":           "World of Hyatt",
		"southwest":       "Southwest Rapid Rewards",
		"iberia":          "Iberia Plus",
		"avianca":         "Avianca LifeMiles",
		"finnair":         "Finnair Plus",
		"thai":            "Thai Royal Orchid Plus",
		"eva":             "EVA Infinity MileageLands",
	}
}
