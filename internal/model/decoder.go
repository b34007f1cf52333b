package model

// PayloadDecoder is the persisted record of a registered decoder: its name
// and description. Field rows live separately in PayloadField.
type PayloadDecoder struct {
	ID          int64
	Name        string
	Description string
}

// PayloadField is one named output of a PayloadDecoder. Unique per decoder.
type PayloadField struct {
	ID               int64
	PayloadDecoderID int64
	Name             string
}
