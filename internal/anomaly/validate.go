package anomaly

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// validator checks model output against the CUE schema of each flow.
//
// Thread-safety: validator serializes access to its cue.Context.
type validator struct {
	mu      sync.Mutex
	ctx     *cue.Context
	schemas map[string]cue.Value
}

func newValidator(c *Catalog) (*validator, error) {
	v := &validator{ctx: cuecontext.New(), schemas: make(map[string]cue.Value)}
	for name, f := range c.Flows {
		schema := v.ctx.CompileString(f.Schema, cue.Filename(name+".cue"))
		if err := schema.Err(); err != nil {
			return nil, fmt.Errorf("flow %q: compile schema: %w", name, err)
		}
		v.schemas[name] = schema
	}
	return v, nil
}

// decode validates raw JSON against the flow schema and decodes it into out.
func (v *validator) decode(flow string, raw []byte, out any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	schema, ok := v.schemas[flow]
	if !ok {
		return fmt.Errorf("%w: no schema for flow %q", ErrInvalidOutput, flow)
	}

	data := v.ctx.CompileBytes(raw, cue.Filename(flow+".json"))
	if err := data.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	unified := schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if err := unified.Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrInvalidOutput, err)
	}
	return nil
}
