package batchlist

import (
	"fmt"
	"strings"
	"time"
)

// Collections maps the short collection suffixes used in batch specs to the
// full EUMETSAT Data Store collection IDs. The ocean colour record is split
// across two collections, so multi-year batch lists mix both.
var Collections = map[string]string{
	"0407": "EO:EUM:DAT:0407", // OLCI L2 Ocean Colour Full Resolution
	"0556": "EO:EUM:DAT:0556", // OLCI L2 Ocean Colour FR (BC003 reprocessed)
}

// DefaultCollection is used when a batch spec omits the collection field.
const DefaultCollection = "0407"

const dateLayout = "2006-01-02"

// Spec is the structured form of a batch token: "name,start,end[,collection]".
// Dispatch never requires this form — tokens stay opaque there — but plan and
// validate use it to catch malformed lists before a cluster job is burned on
// them.
type Spec struct {
	Name       string
	Start      time.Time
	End        time.Time
	Collection string
}

// ParseSpec parses the "name,start,end[,collection]" batch token form.
func ParseSpec(token string) (*Spec, error) {
	parts := strings.Split(token, ",")
	if len(parts) < 3 || len(parts) > 4 {
		return nil, fmt.Errorf("batch spec needs 3 or 4 comma-separated fields, got %d", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return nil, fmt.Errorf("batch spec has empty name")
	}
	start, err := time.Parse(dateLayout, parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid start date '%s': %w", parts[1], err)
	}
	end, err := time.Parse(dateLayout, parts[2])
	if err != nil {
		return nil, fmt.Errorf("invalid end date '%s': %w", parts[2], err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s precedes start date %s", parts[2], parts[1])
	}
	collection := DefaultCollection
	if len(parts) == 4 && parts[3] != "" {
		collection = parts[3]
	}
	if _, ok := Collections[collection]; !ok {
		return nil, fmt.Errorf("unknown collection '%s'", collection)
	}
	return &Spec{Name: parts[0], Start: start, End: end, Collection: collection}, nil
}

// CollectionID returns the full Data Store collection ID.
func (s *Spec) CollectionID() string {
	return Collections[s.Collection]
}
