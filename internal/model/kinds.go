package model

// ActivityKind classifies a presence observation.
type ActivityKind string

const (
	ActivityOnline     ActivityKind = "online"
	ActivityGathering  ActivityKind = "gathering"
	ActivityMobHunting ActivityKind = "mob-hunting"
	ActivityRallying   ActivityKind = "rallying"
	ActivityScouting   ActivityKind = "scouting"
	ActivityAttacking  ActivityKind = "attacking"
	ActivityOther      ActivityKind = "other"
)

// ActivityKinds lists the known activity kinds.
var ActivityKinds = []ActivityKind{
	ActivityOnline, ActivityGathering, ActivityMobHunting, ActivityRallying,
	ActivityScouting, ActivityAttacking, ActivityOther,
}

func (k ActivityKind) String() string { return string(k) }

// IsValid checks whether the activity kind is a known value.
func (k ActivityKind) IsValid() bool {
	for _, v := range ActivityKinds {
		if k == v {
			return true
		}
	}
	return false
}

// ResourceKind is the resource carried by a gathering node.
type ResourceKind string

const (
	ResourceFood  ResourceKind = "food"
	ResourceWood  ResourceKind = "wood"
	ResourceStone ResourceKind = "stone"
	ResourceIron  ResourceKind = "iron"
	ResourceGold  ResourceKind = "gold"
)

// ResourceKinds lists the known resource kinds.
var ResourceKinds = []ResourceKind{ResourceFood, ResourceWood, ResourceStone, ResourceIron, ResourceGold}

func (k ResourceKind) String() string { return string(k) }

// IsValid checks whether the resource kind is a known value.
func (k ResourceKind) IsValid() bool {
	for _, v := range ResourceKinds {
		if k == v {
			return true
		}
	}
	return false
}

// HostileKind is the type of hostile unit that was hit.
type HostileKind string

const (
	HostileDragon  HostileKind = "dragon"
	HostileGryphon HostileKind = "gryphon"
	HostileGoblin  HostileKind = "goblin"
	HostileTroll   HostileKind = "troll"
	HostileHydra   HostileKind = "hydra"
	HostileOther   HostileKind = "other"
)

// HostileKinds lists the known hostile kinds.
var HostileKinds = []HostileKind{
	HostileDragon, HostileGryphon, HostileGoblin, HostileTroll, HostileHydra, HostileOther,
}

func (k HostileKind) String() string { return string(k) }

// IsValid checks whether the hostile kind is a known value.
func (k HostileKind) IsValid() bool {
	for _, v := range HostileKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Level bounds accepted for sightings. Zero means "not reported".
const (
	MaxNodeLevel    = 30
	MaxHostileLevel = 99
)
