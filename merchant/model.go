package merchant

// Currency is one payment option inside a group.
type Currency struct {
	Label    string
	Alias    string
	Name     string
	MinValue string
	MaxValue string
}

type CurrencyGroup struct {
	Code        string
	Description string
	Currencies  []Currency
}

// Operation state codes.
const (
	StateInitiated = "5"
	StateCancelled = "10"
	StateHolding   = "20"
	StateReceived  = "50"
	StateReturned  = "60"
	StateSuspended = "80"
	StatePaid      = "100"
)

type OperationState struct {
	StateCode    string
	RequestDate  string
	StateDate    string
	IncCurrLabel string
	IncSum       string
	IncAccount   string
	OutCurrLabel string
	OutSum       string
	PaymentCode  string
	UserFields   map[string]string

	// Raw is the decoded document.
	Raw map[string]any
}

func (s *OperationState) Paid() bool { return s.StateCode == StatePaid }

// ParseCurrencyGroups reads Groups/Group/Items/Currency from a
// GetCurrencies document.
func ParseCurrencyGroups(body map[string]any) []CurrencyGroup {
	groupsNode, _ := body["Groups"].(map[string]any)

	var groups []CurrencyGroup
	for _, g := range asList(groupsNode["Group"]) {
		group := CurrencyGroup{
			Code:        str(g["Code"]),
			Description: str(g["Description"]),
		}
		items, _ := g["Items"].(map[string]any)
		for _, c := range asList(items["Currency"]) {
			group.Currencies = append(group.Currencies, Currency{
				Label:    str(c["Label"]),
				Alias:    str(c["Alias"]),
				Name:     str(c["Name"]),
				MinValue: str(c["MinValue"]),
				MaxValue: str(c["MaxValue"]),
			})
		}
		groups = append(groups, group)
	}
	return groups
}

// ParseOperationState reads an OpStateExt document.
func ParseOperationState(body map[string]any) *OperationState {
	state, _ := body["State"].(map[string]any)
	info, _ := body["Info"].(map[string]any)
	method, _ := info["PaymentMethod"].(map[string]any)

	s := &OperationState{
		StateCode:    str(state["Code"]),
		RequestDate:  str(state["RequestDate"]),
		StateDate:    str(state["StateDate"]),
		IncCurrLabel: str(info["IncCurrLabel"]),
		IncSum:       str(info["IncSum"]),
		IncAccount:   str(info["IncAccount"]),
		OutCurrLabel: str(info["OutCurrLabel"]),
		OutSum:       str(info["OutSum"]),
		PaymentCode:  str(method["Code"]),
		UserFields:   map[string]string{},
		Raw:          body,
	}

	userField, _ := body["UserField"].(map[string]any)
	for _, f := range asList(userField["Field"]) {
		if name := str(f["Name"]); name != "" {
			s.UserFields[name] = str(f["Value"])
		}
	}
	return s
}

// asList normalizes an element that appears once (map) or repeatedly ([]any).
func asList(v any) []map[string]any {
	switch val := v.(type) {
	case map[string]any:
		return []map[string]any{val}
	case []any:
		out := make([]map[string]any, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
