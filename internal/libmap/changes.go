package libmap

// Transition captures a definition before and after a map edit.
type Transition struct {
	Old Definition
	New Definition
}

// Changes classifies the difference between two resolved maps.
// A definition keeping its path under a new name counts as renamed, a
// definition keeping its name under a new path counts as repathed.
type Changes struct {
	Added    []Definition
	Removed  []Definition
	Renamed  []Transition
	Repathed []Transition
}

func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Renamed) == 0 && len(c.Repathed) == 0
}

// Compare matches the effective definitions of two resolved maps, path
// identity first and name identity second. Output order follows the
// definition order of the respective input map.
func Compare(old *ResolvedMap, new *ResolvedMap) (changes Changes) {
	oldDefinitions := old.Effective()
	newDefinitions := new.Effective()

	newByPath := make(map[string]Definition)
	newByName := make(map[string]Definition)
	for _, definition := range newDefinitions {
		newByPath[definition.Path] = definition
		newByName[definition.Name] = definition
	}

	handled := make(map[Definition]bool)

	for _, oldDefinition := range oldDefinitions {
		if newDefinition, samePath := newByPath[oldDefinition.Path]; samePath {
			if newDefinition != oldDefinition {
				changes.Renamed = append(changes.Renamed, Transition{Old: oldDefinition, New: newDefinition})
			}
			handled[newDefinition] = true
			continue
		}
		if newDefinition, sameName := newByName[oldDefinition.Name]; sameName {
			changes.Repathed = append(changes.Repathed, Transition{Old: oldDefinition, New: newDefinition})
			handled[newDefinition] = true
			continue
		}
		changes.Removed = append(changes.Removed, oldDefinition)
	}

	for _, newDefinition := range newDefinitions {
		if !handled[newDefinition] {
			handled[newDefinition] = true
			changes.Added = append(changes.Added, newDefinition)
		}
	}
	return
}
