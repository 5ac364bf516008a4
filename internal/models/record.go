package models

// Record is the unit stored in a durable collection: an opaque encoded
// payload plus its primary key and the secondary-index values derived
// from it at write time.
type Record struct {
	Key   string            `json:"key"`
	Data  []byte            `json:"data"`
	Index map[string]string `json:"index,omitempty"`
}
