package pricing

import (
	"fmt"
	"sort"
)

// Field names a filterable price record column.
type Field string

const (
	FieldID        Field = "id"
	FieldItemCode  Field = "item_code"
	FieldSelling   Field = "selling"
	FieldBuying    Field = "buying"
	FieldCustomer  Field = "customer"
	FieldSupplier  Field = "supplier"
	FieldIsDefault Field = "is_default_price"
	FieldEnabled   Field = "enabled"
	FieldModified  Field = "modified"
)

// Op is a comparison supported by price stores.
type Op string

const (
	// OpEq matches equal values.
	OpEq Op = "="
	// OpBlank matches NULL or empty party columns.
	OpBlank Op = "blank"
)

// Condition is a single predicate of a price query.
type Condition struct {
	Field Field
	Op    Op
	Value any
}

// Sort orders query results by one column.
type Sort struct {
	Field Field
	Desc  bool
}

// Tier is one priority level of the resolution cascade.
type Tier int

const (
	TierPartySpecific Tier = iota + 1
	TierDirectionDefault
	TierGeneral
	TierFallback
)

func (t Tier) String() string {
	switch t {
	case TierPartySpecific:
		return "party-specific"
	case TierDirectionDefault:
		return "direction-default"
	case TierGeneral:
		return "general"
	case TierFallback:
		return "fallback"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

const (
	defaultTierLimit = 5
	generalTierLimit = 10
)

// PriceQuery is a filtered, sorted and limited lookup against the price store.
// Limit 0 means unbounded.
type PriceQuery struct {
	Tier       Tier
	Conditions []Condition
	OrderBy    []Sort
	Limit      int
}

// BuildTierQuery returns the store query for tier. ok is false when the tier
// does not apply to req (party-specific without a party, or the fallback tier).
func BuildTierQuery(tier Tier, req Request) (q PriceQuery, ok bool) {
	dir := req.Direction
	base := []Condition{
		{Field: FieldItemCode, Op: OpEq, Value: req.ItemCode},
		{Field: dir.FlagField(), Op: OpEq, Value: true},
		{Field: FieldEnabled, Op: OpEq, Value: true},
	}
	switch tier {
	case TierPartySpecific:
		if req.Party == "" {
			return PriceQuery{}, false
		}
		return PriceQuery{
			Tier:       tier,
			Conditions: append(base, Condition{Field: dir.PartyField(), Op: OpEq, Value: req.Party}),
			OrderBy: []Sort{
				{Field: FieldIsDefault, Desc: true},
				{Field: FieldModified, Desc: true},
				{Field: FieldID, Desc: true},
			},
		}, true
	case TierDirectionDefault:
		return PriceQuery{
			Tier:       tier,
			Conditions: append(base, Condition{Field: FieldIsDefault, Op: OpEq, Value: true}),
			OrderBy: []Sort{
				{Field: dir.Opposite().FlagField()},
				{Field: FieldModified, Desc: true},
				{Field: FieldID, Desc: true},
			},
			Limit: defaultTierLimit,
		}, true
	case TierGeneral:
		return PriceQuery{
			Tier:       tier,
			Conditions: append(base, Condition{Field: dir.PartyField(), Op: OpBlank}),
			OrderBy: []Sort{
				{Field: FieldModified, Desc: true},
				{Field: FieldID, Desc: true},
			},
			Limit: generalTierLimit,
		}, true
	}
	return PriceQuery{}, false
}

// Matches evaluates the query conditions against rec in memory.
func (q PriceQuery) Matches(rec PriceRecord) bool {
	for _, c := range q.Conditions {
		v := fieldValue(rec, c.Field)
		switch c.Op {
		case OpEq:
			if v != c.Value {
				return false
			}
		case OpBlank:
			if s, _ := v.(string); s != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Apply filters, sorts and limits records the way a store would.
func (q PriceQuery) Apply(records []PriceRecord) []PriceRecord {
	out := make([]PriceRecord, 0, len(records))
	for _, rec := range records {
		if q.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, s := range q.OrderBy {
			c := compareField(out[i], out[j], s.Field)
			if c == 0 {
				continue
			}
			if s.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func fieldValue(rec PriceRecord, f Field) any {
	switch f {
	case FieldID:
		return rec.ID
	case FieldItemCode:
		return rec.ItemCode
	case FieldSelling:
		return rec.Selling
	case FieldBuying:
		return rec.Buying
	case FieldCustomer:
		return rec.Customer
	case FieldSupplier:
		return rec.Supplier
	case FieldIsDefault:
		return rec.IsDefault
	case FieldEnabled:
		return rec.Enabled
	case FieldModified:
		return rec.Modified
	}
	return nil
}

func compareField(a, b PriceRecord, f Field) int {
	switch f {
	case FieldModified:
		return a.Modified.Compare(b.Modified)
	case FieldID:
		return compareInt(a.ID, b.ID)
	}
	av, bv := fieldValue(a, f), fieldValue(b, f)
	switch x := av.(type) {
	case bool:
		y := bv.(bool)
		if x == y {
			return 0
		}
		if !x {
			return -1
		}
		return 1
	case string:
		y := bv.(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
