package rule

import (
	"fmt"
	"sort"

	"tslint/internal/config"
)

// Registry holds rules in registration order.
type Registry struct {
	rules  []Rule
	byName map[string]Rule
}

// NewRegistry rejects duplicate names.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{byName: make(map[string]Rule, len(rules))}
	for _, rl := range rules {
		if _, dup := r.byName[rl.Name()]; dup {
			return nil, fmt.Errorf("rule %q registered twice", rl.Name())
		}
		r.byName[rl.Name()] = rl
		r.rules = append(r.rules, rl)
	}
	return r, nil
}

// All returns the rules in registration order.
func (r *Registry) All() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Lookup finds a rule by name.
func (r *Registry) Lookup(name string) (Rule, bool) {
	rl, ok := r.byName[name]
	return rl, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rules))
	for _, rl := range r.rules {
		names = append(names, rl.Name())
	}
	sort.Strings(names)
	return names
}

// Instantiate builds instances for every enabled rule, in registration
// order. Rules named in the config but not registered, and option tables a
// rule rejects, fail the whole run before any file is analysed.
func (r *Registry) Instantiate(cfg *config.Config, only ...string) ([]Instance, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	for _, name := range cfg.RuleNames() {
		if _, ok := r.byName[name]; !ok {
			return nil, &config.Error{Path: cfg.Path, Rule: name, Msg: "unknown rule"}
		}
	}
	selected := make(map[string]bool, len(only))
	for _, name := range only {
		if _, ok := r.byName[name]; !ok {
			return nil, &config.Error{Rule: name, Msg: "unknown rule"}
		}
		selected[name] = true
	}

	instances := make([]Instance, 0, len(r.rules))
	for _, rl := range r.rules {
		name := rl.Name()
		if len(selected) > 0 && !selected[name] {
			continue
		}
		if len(selected) == 0 && !cfg.RuleEnabled(name) {
			continue
		}
		in, err := rl.Instantiate(cfg.RuleOptions(name), cfg.RuleSeverity(name, rl.DefaultSeverity()))
		if err != nil {
			return nil, err
		}
		instances = append(instances, in)
	}
	return instances, nil
}
