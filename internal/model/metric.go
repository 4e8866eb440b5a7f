package model

// Label is one key/value pair attached to a metric sample. Order matters:
// labels are serialized in the order the adapter assembled them.
type Label struct {
	Key   string
	Value string
}

// MetricSample represents a single gauge observation in the exposition format.
// Value carries the upstream's decimal representation verbatim; an empty Value
// marks a sub-field the upstream omitted and produces no series line.
type MetricSample struct {
	Name   string
	Help   string
	Labels []Label
	Value  string
}

// L is a shorthand constructor for a label.
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}
