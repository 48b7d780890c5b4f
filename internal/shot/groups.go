package shot

import "strings"

// DefaultSceneKey is the bucket for shot ids lacking a scene separator.
const DefaultSceneKey = "ungrouped"

// SceneGroup is an ordered slice of shots sharing a scene key.
type SceneGroup struct {
	Key   string
	Shots []*Shot
}

// SceneKey returns the token preceding the first underscore of a shot id,
// or DefaultSceneKey when the id has no separator.
func SceneKey(id string) string {
	id = strings.TrimSpace(id)
	if idx := strings.Index(id, "_"); idx > 0 {
		return id[:idx]
	}
	return DefaultSceneKey
}

// GroupByScene partitions shots by scene key, preserving insertion order of
// both groups and shots within a group.
func GroupByScene(shots []*Shot) []SceneGroup {
	index := make(map[string]int, len(shots))
	groups := make([]SceneGroup, 0, len(shots))
	for _, s := range shots {
		if s == nil {
			continue
		}
		key := SceneKey(s.ID)
		i, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, SceneGroup{Key: key})
			i = len(groups) - 1
		}
		groups[i].Shots = append(groups[i].Shots, s)
	}
	return groups
}
