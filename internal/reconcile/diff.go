package reconcile

import (
	"github.com/google/uuid"
)

// Change is a person present on both sides with at least one differing field.
type Change struct {
	Key    string      `json:"key"`
	Fields []FieldName `json:"fields"`
	Before Fields      `json:"before"`
	After  Fields      `json:"after"`
}

type Counts struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
}

// Result holds the three diff categories, each sorted by person key.
type Result struct {
	Added   []Fields
	Removed []Fields
	Changed []Change
}

func (r Result) Counts() Counts {
	return Counts{Added: len(r.Added), Removed: len(r.Removed), Changed: len(r.Changed)}
}

// Compare classifies next against current. Keys only in next are added, keys
// only in current are removed, and common keys are changed when any compared
// field differs.
func Compare(current, next Snapshot) Result {
	out := Result{
		Added:   []Fields{},
		Removed: []Fields{},
		Changed: []Change{},
	}
	for _, k := range next.Keys() {
		after := next[k]
		before, ok := current[k]
		if !ok {
			out.Added = append(out.Added, after)
			continue
		}
		if fields := changedFields(before, after); len(fields) > 0 {
			out.Changed = append(out.Changed, Change{Key: k, Fields: fields, Before: before, After: after})
		}
	}
	for _, k := range current.Keys() {
		if _, ok := next[k]; !ok {
			out.Removed = append(out.Removed, current[k])
		}
	}
	return out
}

func changedFields(before, after Fields) []FieldName {
	var out []FieldName
	for _, name := range ComparedFields {
		if before.Value(name) != after.Value(name) {
			out = append(out, name)
		}
	}
	return out
}

// Select keeps only the entries whose key is listed for its category.
func (r Result) Select(added, removed, changed []string) Result {
	out := Result{
		Added:   []Fields{},
		Removed: []Fields{},
		Changed: []Change{},
	}
	addSet, removeSet, changeSet := keySet(added), keySet(removed), keySet(changed)
	for _, f := range r.Added {
		if addSet[f.PersonKey] {
			out.Added = append(out.Added, f)
		}
	}
	for _, f := range r.Removed {
		if removeSet[f.PersonKey] {
			out.Removed = append(out.Removed, f)
		}
	}
	for _, c := range r.Changed {
		if changeSet[c.Key] {
			out.Changed = append(out.Changed, c)
		}
	}
	return out
}

func keySet(keys []string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// AgentRef echoes the owning agent in a diff payload.
type AgentRef struct {
	ID          uuid.UUID `json:"id"`
	BusinessKey string    `json:"businessKey"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
}

// Diff is the payload handed to callers and cached per batch.
type Diff struct {
	BatchID uuid.UUID `json:"batchId"`
	Lawyer  AgentRef  `json:"lawyer"`
	Counts  Counts    `json:"counts"`
	Added   []Fields  `json:"added"`
	Removed []Fields  `json:"removed"`
	Changed []Change  `json:"changed"`
}

func NewDiff(batchID uuid.UUID, agent AgentRef, r Result) *Diff {
	return &Diff{
		BatchID: batchID,
		Lawyer:  agent,
		Counts:  r.Counts(),
		Added:   r.Added,
		Removed: r.Removed,
		Changed: r.Changed,
	}
}

func (d *Diff) Result() Result {
	return Result{Added: d.Added, Removed: d.Removed, Changed: d.Changed}
}
