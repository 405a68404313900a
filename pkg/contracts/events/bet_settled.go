package events

import "time"

type BetSettled struct {
	BetID      string    `json:"bet_id"`
	FinalValue float64   `json:"final_value"`
	Settled    int       `json:"settled"`
	Won        int       `json:"won"`
	Lost       int       `json:"lost"`
	Voided     int       `json:"voided,omitempty"`
	PaidOut    int64     `json:"paid_out"`
	Ts         time.Time `json:"ts"`
}
