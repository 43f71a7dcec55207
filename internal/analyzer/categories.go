package analyzer

import "regexp"

// category is one detection rule: either a keyword list or a pattern.
// The order of the categories slice is the order indicators appear in
// results, so it must stay stable.
type category struct {
	key     string
	label   string
	weight  int
	terms   []string
	pattern *regexp.Regexp
}

// linkPattern matches URL schemes, www. prefixes and common shorteners.
var linkPattern = regexp.MustCompile(`(?i)(https?://|www\.)\S+|\b(bit\.ly|tinyurl\.com|t\.co|goo\.gl|ow\.ly|is\.gd)/\S+`)

var categories = []category{
	{
		key:     "links",
		label:   "Contains external links",
		weight:  30,
		pattern: linkPattern,
	},
	{
		key:    "urgency",
		label:  "Urgency words",
		weight: 20,
		terms: []string{
			"urgent", "immediately", "asap", "act now", "deadline",
			"final notice", "limited time", "respond quickly", "within 24 hours",
		},
	},
	{
		key:    "pii",
		label:  "Sensitive info requested",
		weight: 25,
		terms: []string{
			"password", "account number", "ssn", "social security", "card number",
			"cvv", "pin", "bank details", "login credentials", "verify identity",
		},
	},
	{
		key:    "prize",
		label:  "Prize-related words",
		weight: 15,
		terms: []string{
			"lottery", "winner", "prize", "claim", "free money",
			"jackpot", "congratulations", "guaranteed win", "cash reward",
		},
	},
	{
		key:    "threat",
		label:  "Threat/authority words",
		weight: 25,
		terms: []string{
			"suspended", "terminated", "account locked", "fine", "lawsuit",
			"irs", "fbi", "police", "paypal support", "bank security",
			"risk", "unauthorized access", "fraudulent activity",
		},
	},
	{
		key:    "money",
		label:  "Financial scam words",
		weight: 20,
		terms: []string{
			"investment opportunity", "guaranteed returns", "double your money",
			"crypto giveaway", "wire transfer", "western union", "bitcoin wallet",
		},
	},
	{
		key:    "shopping",
		label:  "Fake shopping words",
		weight: 15,
		terms: []string{
			"flash sale", "limited stock", "discount code", "free shipping",
			"order confirmation", "track your package", "exclusive deal", "clearance",
		},
	},
	{
		key:    "romance",
		label:  "Romance scam words",
		weight: 15,
		terms: []string{
			"soulmate", "my dear", "my love", "true love", "lonely",
			"destiny", "overseas", "visa fee",
		},
	},
	{
		key:    "health",
		label:  "Health scam words",
		weight: 15,
		terms: []string{
			"miracle cure", "weight loss", "no prescription", "cheap pills",
			"guaranteed results", "anti-aging", "supplement",
		},
	},
}
