// Package roles classifies cards into coarse tactical roles.
package roles

import (
	"fmt"
	"strings"
)

// Role is a coarse tactical category.
type Role int

// Roles in priority order: a card listed under several categories takes the first one.
const (
	WinCondition Role = iota
	Building
	Spell
	Unit
)

// Count is the number of roles.
const Count = 4

// All lists every role in priority order.
var All = [Count]Role{WinCondition, Building, Spell, Unit}

var roleNames = [Count]string{"wincon", "building", "spell", "unit"}

// String returns the table key for the role.
func (r Role) String() string {
	if r < 0 || int(r) >= Count {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole parses a role table key.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wincon", "wincons", "win_condition", "wincondition":
		return WinCondition, nil
	case "building", "buildings":
		return Building, nil
	case "spell", "spells":
		return Spell, nil
	case "unit", "units", "troop", "troops":
		return Unit, nil
	}
	return Unit, fmt.Errorf("unknown role %q", s)
}

// Counts holds a per-role card count.
type Counts [Count]int

// Classifier maps card names to roles. It is immutable after construction.
type Classifier struct {
	roles map[string]Role
}

// NewClassifier builds a classifier from a role -> card names table. A card listed
// under more than one role resolves to the highest priority one.
func NewClassifier(table map[Role][]string) *Classifier {
	c := &Classifier{roles: make(map[string]Role)}
	for _, role := range All {
		for _, name := range table[role] {
			if name == "" {
				continue
			}
			if existing, ok := c.roles[name]; ok && existing <= role {
				continue
			}
			c.roles[name] = role
		}
	}
	return c
}

// Role returns the card's role. Unlisted cards are units.
func (c *Classifier) Role(name string) Role {
	if c == nil {
		return Unit
	}
	if r, ok := c.roles[name]; ok {
		return r
	}
	return Unit
}

// CountRoles tallies the roles of the given cards.
func (c *Classifier) CountRoles(names []string) Counts {
	var counts Counts
	for _, n := range names {
		counts[c.Role(n)]++
	}
	return counts
}

// Len returns the number of explicitly classified cards.
func (c *Classifier) Len() int {
	if c == nil {
		return 0
	}
	return len(c.roles)
}
