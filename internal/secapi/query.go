package secapi

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/bighogz/form4-sales/internal/models"
)

const dateLayout = "2006-01-02"

// Query is the body of an insider-trading search request.
type Query struct {
	Query string
	From  int
	Size  int
	Sort  []map[string]SortOrder
}

type SortOrder struct {
	Order string `json:"order"`
}

// FiledOnQuery selects Form 4 filings filed on date, oldest first.
func FiledOnQuery(date time.Time, from, size int) Query {
	d := date.Format(dateLayout)
	return Query{
		Query: fmt.Sprintf("documentType:4 AND filedAt:[%s TO %s]", d, d),
		From:  from,
		Size:  size,
		Sort:  []map[string]SortOrder{{"filedAt": {Order: "asc"}}},
	}
}

// MarshalJSON encodes from and size as strings, as the endpoint expects.
func (q Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Query string                 `json:"query"`
		From  string                 `json:"from"`
		Size  string                 `json:"size"`
		Sort  []map[string]SortOrder `json:"sort"`
	}{
		Query: q.Query,
		From:  strconv.Itoa(q.From),
		Size:  strconv.Itoa(q.Size),
		Sort:  q.Sort,
	})
}

// Page is one response from the insider-trading endpoint.
type Page struct {
	Total        Total              `json:"total"`
	Transactions []models.RawFiling `json:"transactions"`
	Error        json.RawMessage    `json:"error,omitempty"`
}

// Total is the result count the API reports for the whole query.
type Total struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}
