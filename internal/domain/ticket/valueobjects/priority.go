package valueobjects

import "fmt"

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var orderedPriorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

var validPriorities = map[Priority]bool{
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
	PriorityCritical: true,
}

// Priorities returns the priority levels from lowest to highest.
func Priorities() []Priority {
	priorities := make([]Priority, len(orderedPriorities))
	copy(priorities, orderedPriorities)
	return priorities
}

// PriorityNames returns the priority values as plain strings, lowest first.
func PriorityNames() []string {
	names := make([]string, len(orderedPriorities))
	for i, p := range orderedPriorities {
		names[i] = string(p)
	}
	return names
}

func (p Priority) String() string {
	return string(p)
}

func (p Priority) IsValid() bool {
	return validPriorities[p]
}

// Rank orders priorities, Low being 0. Unknown priorities rank -1.
func (p Priority) Rank() int {
	for i, priority := range orderedPriorities {
		if priority == p {
			return i
		}
	}
	return -1
}

func (p Priority) IsCritical() bool {
	return p == PriorityCritical
}

func NewPriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority: %s", s)
	}
	return p, nil
}
