package doctor

// GroupDefinition describes a check group and the checks it runs.
type GroupDefinition struct {
	Name        string
	Description string
	CheckIDs    []string
}

// groupOrder fixes the display order of groups.
var groupOrder = []string{GroupHost, GroupOperations}

var groupDefinitions = map[string]GroupDefinition{
	GroupHost: {
		Name:        "Proxmox host",
		Description: "Required to reach containers through pct",
		CheckIDs:    []string{IDRoot, IDPct, IDPctList, IDPveVersion},
	},
	GroupOperations: {
		Name:        "Operations",
		Description: "Scripts that can be run across containers",
		CheckIDs:    []string{IDOperationsDir, IDOperations},
	},
}

// GetGroupDefinition returns the definition for a specific group.
func GetGroupDefinition(groupID string) (GroupDefinition, bool) {
	def, ok := groupDefinitions[groupID]
	return def, ok
}

// GetAllGroupIDs returns all group IDs in display order.
func GetAllGroupIDs() []string {
	ids := make([]string, len(groupOrder))
	copy(ids, groupOrder)
	return ids
}
