package scene

import (
	"fmt"

	"github.com/ChicagoDave/crowpitcher/pkg/validation"
)

// separationTolerance absorbs float error in the pairwise spacing check.
const separationTolerance = 1e-9

// ValidateGraph performs structural validation on a scene graph.
// It checks entity integrity, group consistency, bounds enclosure and the
// spacing between spawned items.
func ValidateGraph(g *Graph) *validation.Report {
	r := validation.NewReport()

	if g == nil {
		r.AddError(validation.Result{
			Level:   validation.LevelPlacement,
			Message: "scene graph is nil",
		})
		return r
	}

	validateEntityIDs(g, r)
	validateGroupIndices(g, r)
	validateGroupMembership(g, r)
	validateChildren(g, r)
	validateBoundsEnclosure(g, r)
	validateEntityDimensions(g, r)
	validateSeparation(g, r)

	return r
}

func validateEntityIDs(g *Graph, r *validation.Report) {
	seen := make(map[string]int, len(g.Entities))

	for i, e := range g.Entities {
		if e.ID == "" {
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("entity at index %d has empty ID", i),
				ConfigPath:  fmt.Sprintf("entities[%d].id", i),
				ActualValue: "",
				Expected:    "non-empty string",
			})
			continue
		}
		if prev, exists := seen[e.ID]; exists {
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("duplicate entity ID %q at indices %d and %d", e.ID, prev, i),
				ConfigPath:  fmt.Sprintf("entities[%d].id", i),
				ActualValue: e.ID,
			})
		}
		seen[e.ID] = i
	}
}

func validateGroupIndices(g *Graph, r *validation.Report) {
	entityIDs := make(map[string]bool, len(g.Entities))
	for _, e := range g.Entities {
		entityIDs[e.ID] = true
	}

	checkGroup := func(groupType, groupName string, ids []string) {
		for _, id := range ids {
			if !entityIDs[id] {
				r.AddError(validation.Result{
					Level:       validation.LevelPlacement,
					Message:     fmt.Sprintf("group %s.%s references non-existent entity %q", groupType, groupName, id),
					ConfigPath:  fmt.Sprintf("groups.%s.%s", groupType, groupName),
					ActualValue: id,
					Expected:    "existing entity ID",
				})
			}
		}
	}

	for name, ids := range g.Groups.Surfaces {
		checkGroup("surfaces", name, ids)
	}
	for name, ids := range g.Groups.EntityTypes {
		checkGroup("entity_types", string(name), ids)
	}
}

func membership(groups map[string][]string) map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(groups))
	for name, ids := range groups {
		m := make(map[string]bool, len(ids))
		for _, id := range ids {
			m[id] = true
		}
		out[name] = m
	}
	return out
}

func validateGroupMembership(g *Graph, r *validation.Report) {
	types := make(map[string][]string, len(g.Groups.EntityTypes))
	for et, ids := range g.Groups.EntityTypes {
		types[string(et)] = ids
	}
	typeMembers := membership(types)
	surfaceMembers := membership(g.Groups.Surfaces)

	for _, e := range g.Entities {
		if e.ID == "" {
			continue
		}

		if tm, ok := typeMembers[string(e.Type)]; ok {
			if !tm[e.ID] {
				r.AddError(validation.Result{
					Level:       validation.LevelPlacement,
					Message:     fmt.Sprintf("entity %q has type %q but is not in entity_types group", e.ID, e.Type),
					ConfigPath:  fmt.Sprintf("groups.entity_types.%s", e.Type),
					ActualValue: e.ID,
				})
			}
		} else if e.Type != "" {
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("entity %q has type %q but no such entity_types group exists", e.ID, e.Type),
				ConfigPath:  "groups.entity_types",
				ActualValue: string(e.Type),
			})
		}

		if e.Surface == "" {
			continue
		}
		if sm, ok := surfaceMembers[e.Surface]; !ok || !sm[e.ID] {
			r.AddError(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("entity %q rests on surface %q but is not in its group", e.ID, e.Surface),
				ConfigPath:  fmt.Sprintf("groups.surfaces.%s", e.Surface),
				ActualValue: e.ID,
			})
		}
	}
}

func validateChildren(g *Graph, r *validation.Report) {
	byID := make(map[string]Entity, len(g.Entities))
	for _, e := range g.Entities {
		byID[e.ID] = e
	}
	for _, e := range g.Entities {
		for _, c := range e.Children {
			child, ok := byID[c]
			if !ok {
				r.AddError(validation.Result{
					Level:       validation.LevelPlacement,
					Message:     fmt.Sprintf("entity %q lists missing child %q", e.ID, c),
					ConfigPath:  fmt.Sprintf("entities.%s.children", e.ID),
					ActualValue: c,
				})
				continue
			}
			if surfaceEntityID(child.Surface) != e.ID {
				r.AddWarning(validation.Result{
					Level:        validation.LevelPlacement,
					Message:      fmt.Sprintf("child %q of %q claims surface %q", c, e.ID, child.Surface),
					ConfigPath:   fmt.Sprintf("entities.%s.children", e.ID),
					ConflictWith: child.Surface,
				})
			}
		}
	}
}

func validateBoundsEnclosure(g *Graph, r *validation.Report) {
	bounds := g.Metadata.Bounds
	tolerance := 0.01

	for _, e := range g.Entities {
		half := e.Dimensions.Scale(0.5)
		lo, hi := e.Position.Sub(half), e.Position.Add(half)

		if lo.X < bounds.Min.X-tolerance || hi.X > bounds.Max.X+tolerance ||
			lo.Z < bounds.Min.Z-tolerance || hi.Z > bounds.Max.Z+tolerance {
			r.AddWarning(validation.Result{
				Level: validation.LevelPlacement,
				Message: fmt.Sprintf("entity %q extent [%.2f..%.2f, %.2f..%.2f] outside scene bounds [%.2f..%.2f, %.2f..%.2f]",
					e.ID, lo.X, hi.X, lo.Z, hi.Z, bounds.Min.X, bounds.Max.X, bounds.Min.Z, bounds.Max.Z),
				ConfigPath:  "metadata.bounds",
				ActualValue: e.Position,
			})
			break
		}
	}
}

func validateEntityDimensions(g *Graph, r *validation.Report) {
	for _, e := range g.Entities {
		d := e.Dimensions
		if d.X <= 0 || d.Y <= 0 || d.Z <= 0 {
			r.AddWarning(validation.Result{
				Level:       validation.LevelPlacement,
				Message:     fmt.Sprintf("entity %q has zero or negative dimension (%.2f, %.2f, %.2f)", e.ID, d.X, d.Y, d.Z),
				ConfigPath:  fmt.Sprintf("entities.%s.dimensions", e.ID),
				ActualValue: fmt.Sprintf("%.2f x %.2f x %.2f", d.X, d.Y, d.Z),
				Expected:    "all dimensions > 0",
			})
		}
	}
}

// validateSeparation checks every pair of spawned items against the minimum
// separation. The crow moves freely after spawning and is not checked.
func validateSeparation(g *Graph, r *validation.Report) {
	minSep := g.Metadata.MinSeparation
	if minSep <= 0 {
		return
	}
	var items []Entity
	for _, e := range g.Entities {
		if e.Type != EntitySurface && e.Type != EntityCrow {
			items = append(items, e)
		}
	}
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			d := items[i].Position.Distance(items[j].Position)
			if d+separationTolerance < minSep {
				r.AddError(validation.Result{
					Level:        validation.LevelPlacement,
					Message:      fmt.Sprintf("items %q and %q are %.3f m apart", items[i].ID, items[j].ID, d),
					ConfigPath:   "metadata.min_separation",
					ActualValue:  d,
					Expected:     fmt.Sprintf(">= %.3f", minSep),
					ConflictWith: items[j].ID,
				})
			}
		}
	}
}
