package analytics

import (
	"encoding/json"
	"slices"

	"github.com/shopspring/decimal"
)

// Records of GET /admin/analytics. The backend nests sums and counts the way
// its aggregate query emits them ({_sum:{amount}}, {_count:{id}}); the JSON
// methods below translate that shape so the rest of the client sees flat records.

type CategorySum struct {
	Category     string
	SummedAmount decimal.Decimal
}

type categorySumWire struct {
	Category string `json:"category"`
	Sum      struct {
		Amount decimal.Decimal `json:"amount"`
	} `json:"_sum"`
}

func (c CategorySum) MarshalJSON() ([]byte, error) {
	w := categorySumWire{Category: c.Category}
	w.Sum.Amount = c.SummedAmount
	return json.Marshal(w)
}

func (c *CategorySum) UnmarshalJSON(b []byte) error {
	var w categorySumWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*c = CategorySum{Category: w.Category, SummedAmount: w.Sum.Amount}
	return nil
}

type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

type StatusCount struct {
	Status string
	Count  int
}

type statusCountWire struct {
	Status string `json:"status"`
	Count  struct {
		ID int `json:"id"`
	} `json:"_count"`
}

func (s StatusCount) MarshalJSON() ([]byte, error) {
	w := statusCountWire{Status: s.Status}
	w.Count.ID = s.Count
	return json.Marshal(w)
}

func (s *StatusCount) UnmarshalJSON(b []byte) error {
	var w statusCountWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = StatusCount{Status: w.Status, Count: w.Count.ID}
	return nil
}

type Snapshot struct {
	ByCategory []CategorySum `json:"byCategory"`
	ByMonth    []MonthTotal  `json:"byMonth"`
	ByStatus   []StatusCount `json:"byStatus"`
}

// Clone copies the snapshot and its slices.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		ByCategory: slices.Clone(s.ByCategory),
		ByMonth:    slices.Clone(s.ByMonth),
		ByStatus:   slices.Clone(s.ByStatus),
	}
}

func NewCategorySum(category string, amount decimal.Decimal) CategorySum {
	return CategorySum{Category: category, SummedAmount: amount}
}

func NewStatusCount(status string, count int) StatusCount {
	return StatusCount{Status: status, Count: count}
}
