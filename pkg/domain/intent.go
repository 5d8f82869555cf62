package domain

// Intents understood by the router.
const (
	IntentOrderPizza = "OrderPizza"
	IntentBookFlight = "BookFlight"
	IntentGetWeather = "GetWeather"
	IntentTransfer   = "Transfer"
	IntentNone       = "None"
)

// Entity categories produced by the classifier.
const (
	EntityFromCity    = "fromCity"
	EntityToCity      = "toCity"
	EntityFlightDate  = "flightDate"
	EntityPizzaName   = "pizzaName"
	EntityPizzaSize   = "pizzaSize"
	EntityPizzaExtras = "pizzaExtras"
)

// IntentResult is the classification of one utterance.
type IntentResult struct {
	TopIntent  string            `json:"top_intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities,omitempty"`
}

func (r *IntentResult) entity(name string) string {
	if r == nil || r.Entities == nil {
		return ""
	}
	return r.Entities[name]
}

func (r *IntentResult) FromCity() string    { return r.entity(EntityFromCity) }
func (r *IntentResult) ToCity() string      { return r.entity(EntityToCity) }
func (r *IntentResult) FlightDate() string  { return r.entity(EntityFlightDate) }
func (r *IntentResult) PizzaName() string   { return r.entity(EntityPizzaName) }
func (r *IntentResult) PizzaSize() string   { return r.entity(EntityPizzaSize) }
func (r *IntentResult) PizzaExtras() string { return r.entity(EntityPizzaExtras) }
