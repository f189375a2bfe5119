package audio

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Props is a registry of named parameters. A property owns no state itself:
// its setter validates a value and applies it to whatever it is bound to,
// and its getter reads it back. All properties should be registered before
// any reads take place.
type Props struct {
	mu    sync.RWMutex
	keys  []string
	props map[string]*prop
}

type prop struct {
	set Setter
	get func() interface{}
}

// Setter validates val and applies it.
type Setter func(val interface{}) error

func NewProps() *Props {
	return &Props{props: make(map[string]*prop)}
}

// Set updates the property with value. The key has to be registered first using Register.
func (p *Props) Set(key string, value interface{}) error {
	p.mu.RLock()
	prop, ok := p.props[key]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	if err := prop.set(value); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

func (p *Props) Get(key string) (interface{}, error) {
	p.mu.RLock()
	prop, ok := p.props[key]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return prop.get(), nil
}

// Register adds a new property.
func (p *Props) Register(key string, set Setter, get func() interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.props[key]; ok {
		return fmt.Errorf("property %s already registered", key)
	}
	p.props[key] = &prop{set: set, get: get}
	p.keys = append(p.keys, key)
	return nil
}

func (p *Props) MustRegister(key string, set Setter, get func() interface{}) {
	if err := p.Register(key, set, get); err != nil {
		panic(err)
	}
}

// Keys lists the registered keys starting with prefix, sorted.
func (p *Props) Keys(prefix string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var keys []string
	for _, k := range p.keys {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// SetFloat64 accepts ints and floats within [min, max].
func SetFloat64(min, max float64, apply func(float64)) Setter {
	return func(v interface{}) error {
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return fmt.Errorf("value is not a float64: %v", v)
		}
		if f < min || f > max {
			return fmt.Errorf("property value is not in valid range %v - %v: %v", min, max, f)
		}
		apply(f)
		return nil
	}
}

func SetInt(min, max int, apply func(int)) Setter {
	return func(v interface{}) error {
		var i int
		switch n := v.(type) {
		case float64:
			i = int(n)
		case int:
			i = n
		default:
			return fmt.Errorf("value is not an int: %v", v)
		}
		if i < min || i > max {
			return fmt.Errorf("property value is not in valid range %v - %v: %v", min, max, i)
		}
		apply(i)
		return nil
	}
}

// SetBool accepts booleans, 0 and 1, and on/off.
func SetBool(apply func(bool)) Setter {
	return func(v interface{}) error {
		switch b := v.(type) {
		case bool:
			apply(b)
		case int:
			if b != 0 && b != 1 {
				return fmt.Errorf("value is not a bool: %v", v)
			}
			apply(b == 1)
		case string:
			switch b {
			case "on", "true":
				apply(true)
			case "off", "false":
				apply(false)
			default:
				return fmt.Errorf("value is not a bool: %v", v)
			}
		default:
			return fmt.Errorf("value is not a bool: %v", v)
		}
		return nil
	}
}

// SetString passes strings to apply, which may reject them.
func SetString(apply func(string) error) Setter {
	return func(v interface{}) error {
		if s, ok := v.(string); ok {
			return apply(s)
		}
		return fmt.Errorf("value is not a string: %v", v)
	}
}
