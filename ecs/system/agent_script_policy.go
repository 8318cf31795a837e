package system

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/prefabs"
)

// scriptDispatch is appended to every policy script. The script defines
// decide(obs) returning an action index.
const scriptDispatch = `
__action = decide(__obs)
`

// ScriptPolicy is a tengo decision source. Script faults and out of range
// answers fall back to hold.
type ScriptPolicy struct {
	name     string
	compiled *tengo.Compiled
	log      *logrus.Entry
}

// LoadScriptPolicy compiles the named script from the prefab scripts.
func LoadScriptPolicy(name string) (*ScriptPolicy, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("system: load policy script %s: %w", name, err)
	}
	return NewScriptPolicy(name, src)
}

func NewScriptPolicy(name string, src []byte) (*ScriptPolicy, error) {
	script := tengo.NewScript(append(append([]byte{}, src...), scriptDispatch...))
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	_ = script.Add("__obs", make([]interface{}, component.ObservationSize))
	_ = script.Add("__action", 0)

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("system: compile policy script %s: %w", name, err)
	}
	return &ScriptPolicy{
		name:     name,
		compiled: compiled,
		log:      agentLog.WithField("script", name),
	}, nil
}

func (p *ScriptPolicy) Name() string {
	return p.name
}

func (p *ScriptPolicy) Decide(obs component.Observation) component.Action {
	values := make([]interface{}, len(obs))
	for i, v := range obs {
		values[i] = v
	}
	if err := p.compiled.Set("__obs", values); err != nil {
		p.log.WithError(err).Warn("set observation")
		return component.ActionHold
	}
	if err := p.compiled.Run(); err != nil {
		p.log.WithError(err).Warn("policy script failed")
		return component.ActionHold
	}

	action := component.Action(p.compiled.Get("__action").Int())
	if !action.Valid() {
		p.log.WithField("action", int(action)).Warn("policy script returned invalid action")
		return component.ActionHold
	}
	return action
}
