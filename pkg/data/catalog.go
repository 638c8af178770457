// Package data resolves action and status ids to descriptive records.
package data

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/mitilog/pkg/event"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrUnknownAction is returned when an action key or id is not in the catalog.
var ErrUnknownAction = errors.New("unknown action")

// ErrUnknownStatus is returned when a status key or id is not in the catalog.
var ErrUnknownStatus = errors.New("unknown status")

// Action describes an ability.
type Action struct {
	Key   string         `yaml:"-" json:"key,omitempty"`
	ID    event.ActionID `yaml:"id" json:"id"`
	Name  string         `yaml:"name" json:"name"`
	Icon  string         `yaml:"icon,omitempty" json:"icon,omitempty"`
	OnGCD bool           `yaml:"on_gcd,omitempty" json:"on_gcd,omitempty"`
}

// Status describes a buff or debuff.
type Status struct {
	Key  string         `yaml:"-" json:"key,omitempty"`
	ID   event.StatusID `yaml:"id" json:"id"`
	Name string         `yaml:"name" json:"name"`
	Icon string         `yaml:"icon,omitempty" json:"icon,omitempty"`
}

// Lookup resolves action ids.
type Lookup interface {
	// Action returns the action with the given id, if known.
	Action(id event.ActionID) (Action, bool)
}

// Catalog is an in-memory action and status table.
type Catalog struct {
	actions    map[event.ActionID]Action
	actionKeys map[string]Action
	statuses   map[event.StatusID]Status
	statusKeys map[string]Status
}

type catalogFile struct {
	Actions  map[string]Action `yaml:"actions"`
	Statuses map[string]Status `yaml:"statuses"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog file and layers it over the built-in one.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- user-provided catalog path is expected
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	c := DefaultCatalog()
	if err := c.merge(raw); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog parses a YAML catalog document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	c := &Catalog{
		actions:    make(map[event.ActionID]Action),
		actionKeys: make(map[string]Action),
		statuses:   make(map[event.StatusID]Status),
		statusKeys: make(map[string]Status),
	}
	if err := c.merge(raw); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) merge(raw []byte) error {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}

	for key, a := range f.Actions {
		if a.ID <= 0 {
			return fmt.Errorf("actions.%s: id must be positive", key)
		}
		a.Key = key
		if old, ok := c.actionKeys[key]; ok {
			delete(c.actions, old.ID)
		}
		c.actions[a.ID] = a
		c.actionKeys[key] = a
	}

	for key, s := range f.Statuses {
		if s.ID <= 0 {
			return fmt.Errorf("statuses.%s: id must be positive", key)
		}
		s.Key = key
		if old, ok := c.statusKeys[key]; ok {
			delete(c.statuses, old.ID)
		}
		c.statuses[s.ID] = s
		c.statusKeys[key] = s
	}

	return nil
}

// Action returns the action with the given id.
func (c *Catalog) Action(id event.ActionID) (Action, bool) {
	a, ok := c.actions[id]
	return a, ok
}

// ActionByKey returns the action registered under key (e.g. "KERACHOLE").
func (c *Catalog) ActionByKey(key string) (Action, bool) {
	a, ok := c.actionKeys[key]
	return a, ok
}

// Status returns the status with the given id.
func (c *Catalog) Status(id event.StatusID) (Status, bool) {
	s, ok := c.statuses[id]
	return s, ok
}

// StatusByKey returns the status registered under key.
func (c *Catalog) StatusByKey(key string) (Status, bool) {
	s, ok := c.statusKeys[key]
	return s, ok
}

// ResolveActionRef resolves a catalog key or a numeric id. Numeric ids are
// accepted even when the catalog does not know them.
func (c *Catalog) ResolveActionRef(ref string) (event.ActionID, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrUnknownAction, ref)
		}
		return event.ActionID(n), nil
	}
	if a, ok := c.ActionByKey(ref); ok {
		return a.ID, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, ref)
}

// ResolveStatusRef resolves a status catalog key or numeric id.
func (c *Catalog) ResolveStatusRef(ref string) (event.StatusID, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, ref)
		}
		return event.StatusID(n), nil
	}
	if s, ok := c.StatusByKey(ref); ok {
		return s.ID, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, ref)
}

// Len returns the number of actions in the catalog.
func (c *Catalog) Len() int {
	return len(c.actions)
}
