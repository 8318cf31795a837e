package entity

import (
	"fmt"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/arena/ecs"
	"github.com/milk9111/arena/prefabs"
)

const defaultEnemyPrefab = "melee_enemy.yaml"

// NewEnemyAt builds an enemy from prefab with the named archetype at (x, y).
// An empty prefab uses the melee prefab.
func NewEnemyAt(w *ecs.World, reg *prefabs.Registry, prefab, archetype string, x, y float64) (ecs.Entity, error) {
	if prefab == "" {
		prefab = defaultEnemyPrefab
	}
	pos := cp.Vector{X: x, Y: y}
	e, err := BuildEntityWith(w, &BuildContext{
		PrefabPath: prefab,
		Archetypes: reg,
		Archetype:  archetype,
		Position:   &pos,
	})
	if err != nil {
		return 0, fmt.Errorf("enemy: %w", err)
	}
	return e, nil
}
