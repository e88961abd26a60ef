package subscription

// Plan describes a subscription tier.
type Plan struct {
	Name  string `json:"name"`
	IsPro bool   `json:"isPro"`
}

// Plans maps plan names to their descriptors. Billing lifecycle is external;
// this table only says what each tier is allowed to do here.
var Plans = map[string]Plan{
	"free": {Name: "free"},
	"pro":  {Name: "pro", IsPro: true},
}

// Lookup returns the plan for a name, defaulting to free if unknown.
func Lookup(name string) Plan {
	if p, ok := Plans[name]; ok {
		return p
	}
	return Plans["free"]
}
