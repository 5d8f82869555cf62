package domain

// BookingDetails is the structured result of the booking dialog.
type BookingDetails struct {
	Destination string `json:"destination,omitempty" mapstructure:"destination,omitempty"`
	Origin      string `json:"origin,omitempty" mapstructure:"origin,omitempty"`
	TravelDate  string `json:"travel_date,omitempty" mapstructure:"travel_date,omitempty"`
	CallID      string `json:"call_id,omitempty" mapstructure:"call_id,omitempty"`
}

// OrderDetails is the structured result of the pizza ordering dialog.
type OrderDetails struct {
	CallID string `json:"call_id,omitempty" mapstructure:"call_id,omitempty"`
	Caller string `json:"caller,omitempty" mapstructure:"caller,omitempty"`
	Name   string `json:"name,omitempty" mapstructure:"name,omitempty"`
	Size   string `json:"size,omitempty" mapstructure:"size,omitempty"`
	Extras string `json:"extras,omitempty" mapstructure:"extras,omitempty"`
	Locale string `json:"locale,omitempty" mapstructure:"locale,omitempty"`
}

// ClientValue is the structured payload a client may attach to an activity.
type ClientValue struct {
	Action string `json:"Action,omitempty" mapstructure:"Action"`
	CallID string `json:"CallID,omitempty" mapstructure:"CallID"`
}

// ClientActionInit asks the router to greet the user.
const ClientActionInit = "init"
