package model

// Snitch is a snitch block known to a report, typically read from a
// snitchmods SQLite export. Coordinates follow the same axis convention
// as Event (Z is height).
//
// A snitch may be synthetic: events sometimes reference snitches that
// are missing from the database (broken, culled, or simply never
// exported), and the ingest step fabricates a placeholder at the event
// position so those events still render.
type Snitch struct {
	World     string `json:"world"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Z         int    `json:"z"`
	GroupName string `json:"group_name"`
	Type      string `json:"type"`
	Name      string `json:"name"`
	DormantTS int64  `json:"dormant_ts"`
	CullTS    int64  `json:"cull_ts"`
	CreatedTS int64  `json:"created_ts"`
	Synthetic bool   `json:"synthetic"`
}
